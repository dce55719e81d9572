package reader

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// requestTfRead issues a ReadAllForward from fromTfPos . The
// sentinel -1 prepare position is clamped to 0; the wider sentinel
// TfPosBefore (prepare -10) is left untouched, as it is a valid starting
// FromPos for a brand-new reader with no prior TF-mode history.
func (c *Coordinator) requestTfRead(delay bool) {
	if c.disposed || c.paused || c.pauseRequested {
		return
	}
	if c.tf.tfRequested {
		return
	}
	c.tf.tfRequested = true

	from := c.fromTfPos
	if from.Prepare == -1 {
		from.Prepare = 0
	}
	c.publishIo(delay, ReadAllForwardRequest{
		FromPos:        from,
		MaxCount:       TfReadCount,
		ResolveLinkTos: true,
		User:           c.opts.User,
	})
}

// OnReadAllForwardCompleted handles a TF-log forward-scan completion
// , filtering for the configured event types and skipping events
// already covered by the index.
func (c *Coordinator) OnReadAllForwardCompleted(msg ReadAllForwardCompleted) error {
	if c.disposed {
		return nil
	}
	defer c.settlePause()
	if !c.tf.tfRequested {
		return protocolErrorf("ReadAllForward completion without an outstanding request")
	}
	c.tf.tfRequested = false

	if msg.Result != ResultSuccess {
		return unsupportedResultErrorf("unsupported result %v reading TF log forward", msg.Result)
	}
	c.fromTfPos = msg.NextPos

	if len(msg.Events) == 0 {
		if c.stopOnEof {
			// A final LastCommitPosition marker is suppressed whenever
			// stopOnEof is set.
			c.out.PublishIdle(EventReaderIdle{CorrelationId: c.correlationId, Timestamp: time.Now().UnixNano()})
			c.out.PublishEof(EventReaderEof{CorrelationId: c.correlationId, MaxEventsReached: false})
			c.Dispose()
			return nil
		}
		c.requestTfRead(true)
		return nil
	}

	for _, ev := range msg.Events {
		if ev.Link != nil {
			if _, ok := c.streamToType[StreamKey(ev.Link.StreamId)]; ok {
				if existing, ok := c.index.fromPositions[StreamKey(ev.Link.StreamId)]; !ok || ev.Link.EventNumber+1 > existing {
					c.index.fromPositions[StreamKey(ev.Link.StreamId)] = ev.Link.EventNumber + 1
				}
			}
			continue
		}

		if !c.eventTypes[ev.Event.EventType] {
			continue
		}

		var progress float64
		if msg.TfEofPosition > 0 {
			progress = 100.0 * float64(ev.Event.LogPosition.Commit) / float64(msg.TfEofPosition)
		}
		c.deliver(ev, ev.Event.LogPosition, progress, false)
		if c.disposed {
			return nil
		}
	}

	if !c.paused {
		c.requestTfRead(false)
	}
	log.WithField("nextPos", c.fromTfPos.String()).Debug("advanced TF log scan")
	return nil
}
