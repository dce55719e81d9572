package reader

import (
	log "github.com/sirupsen/logrus"
)

// requestStreamForward issues a forward read of a type-index stream if one
// isn't already in flight and the stream's buffer is empty. It is a no-op
// while paused, disposed, or once the reader has switched to TfMode.
func (c *Coordinator) requestStreamForward(key StreamKey, delay bool) {
	if c.disposed || c.paused || c.pauseRequested || c.mode == ModeTf {
		return
	}
	if c.index.requested[key] {
		return
	}
	if len(c.index.buffers[key]) > 0 {
		return
	}
	c.index.requested[key] = true
	c.publishIo(delay, ReadStreamForwardRequest{
		StreamId:        key,
		FromEventNumber: c.index.fromPositions[key],
		MaxCount:        StreamReadCount,
		ResolveLinkTos:  c.opts.ResolveLinkTos,
		User:            c.opts.User,
	})
}

// requestCheckpointBackward issues the one-time initial probe of the
// checkpoint stream, from the end, to learn the latest certified position.
func (c *Coordinator) requestCheckpointBackward() {
	if c.disposed || c.index.checkpointRequested {
		return
	}
	c.index.checkpointRequested = true
	c.publishIo(false, ReadStreamBackwardRequest{
		StreamId:        CheckpointStreamKey,
		FromEventNumber: -1,
		MaxCount:        1,
		ResolveLinkTos:  false,
		User:            c.opts.User,
	})
}

// requestCheckpointForward issues the steady-state forward read of the
// checkpoint stream, from just past the last-seen sequence number.
func (c *Coordinator) requestCheckpointForward(delay bool) {
	if c.disposed || c.mode == ModeTf || c.paused || c.pauseRequested {
		return
	}
	if c.index.checkpointRequested {
		return
	}
	c.index.checkpointRequested = true
	c.publishIo(delay, ReadStreamForwardRequest{
		StreamId:        CheckpointStreamKey,
		FromEventNumber: c.index.lastCheckpointSeq + 1,
		MaxCount:        CheckpointReadCount,
		ResolveLinkTos:  false,
		User:            c.opts.User,
	})
}

// OnReadStreamBackwardCompleted handles the initial checkpoint-stream
// probe. Only the checkpoint stream is ever read backward.
func (c *Coordinator) OnReadStreamBackwardCompleted(msg ReadStreamBackwardCompleted) error {
	if c.disposed {
		return nil
	}
	defer c.settlePause()
	if msg.StreamId != CheckpointStreamKey {
		return protocolErrorf("unexpected backward read completion for stream %q", msg.StreamId)
	}
	if !c.index.checkpointRequested {
		return protocolErrorf("backward checkpoint completion without an outstanding request")
	}
	c.index.checkpointRequested = false

	switch msg.Result {
	case ResultNoStream:
		// No checkpoint has ever been written; keep the -1/(0,0) defaults.
	case ResultSuccess:
		if len(msg.Events) > 0 {
			if err := c.applyCheckpointEvent(msg.Events[0]); err != nil {
				return err
			}
		}
	default:
		return unsupportedResultErrorf("unsupported result %v reading checkpoint stream backward", msg.Result)
	}

	c.processBuffers()
	c.checkSwitch()
	c.requestCheckpointForward(false)
	return nil
}

// OnReadStreamForwardCompleted routes a forward-read completion to either
// the checkpoint-stream handler or the type-index-stream handler. Once in
// TfMode, only the checkpoint stream's own stale in-flight completion is
// still accepted (and then ignored, since checkpoint state is frozen);
// everything else is dropped as stale.
func (c *Coordinator) OnReadStreamForwardCompleted(msg ReadStreamForwardCompleted) error {
	if c.disposed {
		return nil
	}
	defer c.settlePause()
	if msg.StreamId == CheckpointStreamKey {
		return c.onCheckpointForwardCompleted(msg)
	}
	if c.mode == ModeTf {
		log.WithField("stream", msg.StreamId).Debug("dropping stale type-index completion after TfMode switch")
		delete(c.index.requested, msg.StreamId)
		return nil
	}
	return c.onTypeStreamForwardCompleted(msg)
}

func (c *Coordinator) onCheckpointForwardCompleted(msg ReadStreamForwardCompleted) error {
	if !c.index.checkpointRequested {
		return protocolErrorf("checkpoint forward completion without an outstanding request")
	}
	c.index.checkpointRequested = false

	if c.mode == ModeTf {
		// Invariant 6: checkpoint state is frozen once in TfMode. The read
		// was already in flight at the moment of the switch; we clear its
		// bookkeeping above and otherwise ignore it.
		return nil
	}

	switch msg.Result {
	case ResultNoStream:
		c.index.eofs[CheckpointStreamKey] = true
		c.requestCheckpointForward(true)
		return nil
	case ResultSuccess:
	default:
		return unsupportedResultErrorf("unsupported result %v reading checkpoint stream forward", msg.Result)
	}

	empty := len(msg.Events) == 0
	for _, ev := range msg.Events {
		if err := c.applyCheckpointEvent(ev); err != nil {
			return err
		}
	}

	c.processBuffers()
	c.checkSwitch()
	c.requestCheckpointForward(empty)
	return nil
}

func (c *Coordinator) applyCheckpointEvent(ev ResolvedEvent) error {
	pos, err := ParseCheckpointTag(ev.Event.Data)
	if err != nil {
		return err
	}
	c.index.lastCheckpointPos = pos
	c.index.lastCheckpointSeq = ev.Event.EventNumber
	if c.metr != nil {
		c.metr.SetCheckpointPosition(pos)
	}
	return nil
}

func (c *Coordinator) onTypeStreamForwardCompleted(msg ReadStreamForwardCompleted) error {
	if !c.index.requested[msg.StreamId] {
		return protocolErrorf("forward completion for stream %q without an outstanding request", msg.StreamId)
	}
	delete(c.index.requested, msg.StreamId)

	switch msg.Result {
	case ResultNoStream:
		c.index.eofs[msg.StreamId] = true
		c.processBuffers()
		c.requestStreamForward(msg.StreamId, true)
		c.checkSwitch()
		return nil
	case ResultSuccess:
	default:
		return unsupportedResultErrorf("unsupported result %v reading stream %q forward", msg.Result, msg.StreamId)
	}

	if existing, ok := c.index.fromPositions[msg.StreamId]; !ok || msg.NextEventNumber > existing {
		c.index.fromPositions[msg.StreamId] = msg.NextEventNumber
	}

	empty := len(msg.Events) == 0
	c.index.eofs[msg.StreamId] = empty

	for _, ev := range msg.Events {
		positionEvent := ev.PositionEvent()
		tfPos, err := ParseCheckpointTag(positionEvent.Metadata)
		if err != nil {
			return err
		}
		var progress float64
		if msg.LastEventNumber > 0 {
			progress = 100.0 * float64(positionEvent.EventNumber) / float64(msg.LastEventNumber)
		}
		c.index.buffers[msg.StreamId] = append(c.index.buffers[msg.StreamId], PendingEvent{
			Event:         ev.Event,
			PositionEvent: positionEvent,
			TfPos:         tfPos,
			Progress:      progress,
		})
	}
	if c.metr != nil {
		c.metr.SetBufferDepth(msg.StreamId, len(c.index.buffers[msg.StreamId]))
	}

	c.processBuffers()
	c.requestStreamForward(msg.StreamId, empty)
	c.checkSwitch()
	return nil
}

// processBuffers is the k-way merge: it repeatedly identifies the
// smallest-tfPos head across all configured type-streams and, so long as
// delivering it is provably safe (no stream has reported EOF, so every
// stream has a buffered head to rank against, or the candidate is within
// the indexed prefix), pops and delivers it. It returns as soon as it
// cannot make further progress without blocking on a read or without
// risking a misordered delivery.
func (c *Coordinator) processBuffers() {
	if c.mode == ModeTf {
		return
	}

	for {
		// A stream blocks the whole merge while its buffer is empty and it
		// hasn't reported EOF: we cannot safely rank events we haven't read
		// yet against what's already buffered. The check is repeated on
		// every iteration, since a delivery can drain a stream's buffer.
		var anyEof bool
		for _, t := range c.opts.EventTypes {
			key := EventTypeStreamKey(t)
			if len(c.index.buffers[key]) == 0 {
				if c.index.eofs[key] {
					anyEof = true
					continue
				}
				return
			}
		}

		var (
			haveCandidate bool
			candidateKey  StreamKey
			candidate     PendingEvent
		)
		for _, t := range c.opts.EventTypes {
			key := EventTypeStreamKey(t)
			buf := c.index.buffers[key]
			if len(buf) == 0 {
				continue
			}
			if !haveCandidate || buf[0].TfPos.Less(candidate.TfPos) {
				candidate, candidateKey, haveCandidate = buf[0], key, true
			}
		}

		if !haveCandidate {
			break
		}

		if anyEof && !candidate.TfPos.Less(c.index.lastCheckpointPos) {
			return // cannot prove the candidate is in the indexed prefix.
		}

		c.index.buffers[candidateKey] = c.index.buffers[candidateKey][1:]
		if c.metr != nil {
			c.metr.SetBufferDepth(candidateKey, len(c.index.buffers[candidateKey]))
		}
		c.deliver(candidate.Resolved(), candidate.TfPos, candidate.Progress, true)
		if c.disposed {
			return
		}
		// Draining this stream's buffer as a side effect of another
		// stream's completion still needs to trigger its own refill --
		// only its own completion handler would otherwise do so.
		c.requestStreamForward(candidateKey, false)
	}
	c.checkIdle()
}

// checkSwitch decides the one-way IndexMode -> TfMode handoff: every
// configured type-stream must either have reached EOF, or have a
// buffered head already beyond the indexed prefix.
func (c *Coordinator) checkSwitch() {
	if c.mode == ModeTf {
		return
	}
	for _, t := range c.opts.EventTypes {
		key := EventTypeStreamKey(t)
		if c.index.eofs[key] {
			continue
		}
		buf := c.index.buffers[key]
		if len(buf) == 0 {
			return // can't yet prove this stream is beyond the indexed region.
		}
		if buf[0].TfPos.Less(c.index.lastCheckpointPos) {
			return // still within the indexed prefix for this stream.
		}
	}

	c.mode = ModeTf
	if c.metr != nil {
		c.metr.SetMode(true)
	}
	log.WithField("fromTfPos", c.fromTfPos.String()).Info("switching from IndexMode to TfMode")
	c.requestTfRead(false)
}
