package reader

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Mode is the reader's two-phase source-switching state.
type Mode int

const (
	ModeIndex Mode = iota
	ModeTf
)

func (m Mode) String() string {
	if m == ModeTf {
		return "TfMode"
	}
	return "IndexMode"
}

// Coordinator is the Reader Coordinator: it owns mode, lifecycle,
// the high-water mark, and forwards inbound completions to whichever
// sub-reader (Index or TF) is presently active. There is no internal
// parallelism: every exported method must be invoked by the host under its
// own single-threaded mailbox discipline (see package doc).
type Coordinator struct {
	io   IOPort
	tmr  Timer
	out  SubscriptionPort
	metr Metrics

	correlationId string
	opts          Options
	eventTypes    map[string]bool
	streamToType  map[StreamKey]string

	mode           Mode
	fromTfPos      TfPos
	lastDelivered  TfPos
	deliveredCount uint64
	maxDeliveries  *uint64
	stopOnEof      bool

	running        bool
	pauseRequested bool
	paused         bool
	disposed       bool

	index indexState
	tf    tfState
}

type indexState struct {
	fromPositions       map[StreamKey]int32
	buffers             map[StreamKey][]PendingEvent
	eofs                map[StreamKey]bool
	requested           map[StreamKey]bool
	checkpointRequested bool
	lastCheckpointSeq   int32
	lastCheckpointPos   TfPos
}

type tfState struct {
	tfRequested bool
}

// New constructs a Coordinator. It validates construction invariants
// synchronously: an empty EventTypes or a FromPositions map that
// doesn't cover every configured type is rejected here, never later.
func New(opts Options, io IOPort, tmr Timer, out SubscriptionPort, metr Metrics, correlationId string) (*Coordinator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	fromPositions := make(map[StreamKey]int32, len(opts.FromPositions))
	for k, v := range opts.FromPositions {
		fromPositions[k] = v
	}

	eventTypes := make(map[string]bool, len(opts.EventTypes))
	streamToType := make(map[StreamKey]string, len(opts.EventTypes))
	for _, t := range opts.EventTypes {
		eventTypes[t] = true
		streamToType[EventTypeStreamKey(t)] = t
	}

	c := &Coordinator{
		io:            io,
		tmr:           tmr,
		out:           out,
		metr:          metr,
		correlationId: correlationId,
		opts:          opts,
		eventTypes:    eventTypes,
		streamToType:  streamToType,
		mode:          ModeIndex,
		fromTfPos:     opts.FromTfPos,
		lastDelivered: TfPosBefore,
		maxDeliveries: opts.MaxDeliveries,
		stopOnEof:     opts.StopOnEof,
		index: indexState{
			fromPositions:     fromPositions,
			buffers:           make(map[StreamKey][]PendingEvent),
			eofs:              make(map[StreamKey]bool),
			requested:         make(map[StreamKey]bool),
			lastCheckpointSeq: -1,
			lastCheckpointPos: TfPos{},
		},
	}
	return c, nil
}

// Start issues the reader's initial I/O: a forward read per
// configured type-stream plus a backward probe of the checkpoint stream.
// It returns ErrDisposed if called after Dispose.
func (c *Coordinator) Start() error {
	if c.disposed {
		return ErrDisposed
	}
	c.running = true
	for _, t := range c.opts.EventTypes {
		c.requestStreamForward(EventTypeStreamKey(t), false)
	}
	c.requestCheckpointBackward()
	return nil
}

// Pause latches pauseRequested; no new reads are issued while set. Once the
// last outstanding read completes, Paused() becomes true. It returns
// ErrDisposed if called after Dispose.
func (c *Coordinator) Pause() error {
	if c.disposed {
		return ErrDisposed
	}
	c.pauseRequested = true
	if !c.anyInFlight() {
		c.paused = true
	}
	return nil
}

// Resume clears both pause latches and re-issues reads appropriate to the
// current mode. It returns ErrDisposed if called after Dispose.
func (c *Coordinator) Resume() error {
	if c.disposed {
		return ErrDisposed
	}
	c.pauseRequested = false
	c.paused = false

	switch c.mode {
	case ModeIndex:
		for _, t := range c.opts.EventTypes {
			c.requestStreamForward(EventTypeStreamKey(t), false)
		}
		c.requestCheckpointForward(false)
	case ModeTf:
		c.requestTfRead(false)
	}
	return nil
}

// Dispose is idempotent; subsequent completions are dropped.
func (c *Coordinator) Dispose() {
	c.disposed = true
}

// Disposed reports whether the reader has been torn down.
func (c *Coordinator) Disposed() bool { return c.disposed }

// Paused reports whether the reader is fully quiesced.
func (c *Coordinator) Paused() bool { return c.paused }

func (c *Coordinator) anyInFlight() bool {
	if len(c.index.requested) > 0 || c.index.checkpointRequested {
		return true
	}
	return c.tf.tfRequested
}

// settlePause transitions pauseRequested -> paused the moment the last
// outstanding read drains. It is called at the end of every completion
// handler.
func (c *Coordinator) settlePause() {
	if c.pauseRequested && !c.paused && !c.anyInFlight() {
		c.paused = true
	}
}

// publishIo emits req immediately, or after the 250ms retry delay when
// delay is set (used to back off against an observed-empty tail).
func (c *Coordinator) publishIo(delay bool, req IoRequest) {
	if c.disposed {
		return
	}
	if delay {
		c.tmr.Schedule(RetryDelayMillis*time.Millisecond, func() {
			c.onTimerFired(TimerFired{Enclosed: req})
		})
		return
	}
	c.io.EnqueueIO(req)
}

// onTimerFired re-dispatches a delayed request. A fire on a disposed reader
// is dropped. A fire on one that has since paused is dropped too, after
// clearing the request's in-flight flag so the pause can settle and Resume
// can re-issue the read.
func (c *Coordinator) onTimerFired(msg TimerFired) {
	if c.disposed {
		return
	}
	switch req := msg.Enclosed.(type) {
	case ReadStreamForwardRequest:
		if req.StreamId == CheckpointStreamKey {
			c.index.checkpointRequested = false
		} else {
			delete(c.index.requested, req.StreamId)
		}
		if c.paused || c.pauseRequested {
			c.settlePause()
			return
		}
		if req.StreamId == CheckpointStreamKey {
			c.requestCheckpointForward(false)
			return
		}
		c.requestStreamForward(req.StreamId, false)
	case ReadAllForwardRequest:
		c.tf.tfRequested = false
		if c.paused || c.pauseRequested {
			c.settlePause()
			return
		}
		c.requestTfRead(false)
	default:
		c.io.EnqueueIO(msg.Enclosed)
	}
}

// deliver is the single chokepoint enforcing the high-water invariant:
// any event whose tfPos doesn't strictly exceed lastDelivered is a
// duplicate and is silently discarded.
func (c *Coordinator) deliver(resolved ResolvedEvent, tfPos TfPos, progress float64, fromIndex bool) {
	if c.disposed {
		return
	}
	if tfPos.LessOrEqual(c.lastDelivered) {
		log.WithFields(log.Fields{
			"tfPos":         tfPos.String(),
			"lastDelivered": c.lastDelivered.String(),
		}).Debug("discarding duplicate or out-of-order event")
		return
	}

	c.lastDelivered = tfPos
	if fromIndex {
		c.fromTfPos = tfPos
	}
	c.deliveredCount++

	if c.metr != nil {
		c.metr.IncDelivered()
		c.metr.SetLastDelivered(tfPos)
	}

	var safeJoinPos *TfPos
	if !c.stopOnEof {
		if fromIndex {
			p := tfPos
			safeJoinPos = &p
		} else {
			p := TfPos{Prepare: tfPos.Prepare}
			safeJoinPos = &p
		}
	}

	re := resolved
	c.out.PublishCommittedEvent(CommittedEventDistributed{
		CorrelationId: c.correlationId,
		ResolvedEvent: &re,
		SafeJoinPos:   safeJoinPos,
		Progress:      progress,
	})

	c.checkStopAfterN()
}

// checkStopAfterN disposes the reader and publishes a final EOF the moment
// deliveredCount reaches maxDeliveries (invariant 7).
func (c *Coordinator) checkStopAfterN() {
	if c.maxDeliveries == nil || c.deliveredCount < *c.maxDeliveries {
		return
	}
	c.Dispose()
	c.out.PublishEof(EventReaderEof{CorrelationId: c.correlationId, MaxEventsReached: true})
}

// checkIdle publishes EventReaderIdle once every configured stream has
// reached EOF (index mode only; TF mode's own EOF handling is separate).
func (c *Coordinator) checkIdle() {
	if c.mode != ModeIndex {
		return
	}
	for _, t := range c.opts.EventTypes {
		if !c.index.eofs[EventTypeStreamKey(t)] {
			return
		}
	}
	c.out.PublishIdle(EventReaderIdle{CorrelationId: c.correlationId, Timestamp: time.Now().UnixNano()})
}

func protocolErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrProtocolViolation, fmt.Sprintf(format, args...))
}

// unsupportedResultErrorf wraps ErrUnsupportedResult, for completions that
// arrived correctly matched to an outstanding request but carry a result
// code this reader has no handling for. Distinct from ErrProtocolViolation,
// which marks a completion that shouldn't have arrived at all.
func unsupportedResultErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedResult, fmt.Sprintf(format, args...))
}
