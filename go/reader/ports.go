package reader

import "time"

// IOPort is the external collaborator that carries outbound read requests
// to the underlying log-read RPCs. The reader never blocks on it: every
// request is fire-and-forget, with the completion arriving later as an
// inbound message through Dispatch.
type IOPort interface {
	EnqueueIO(req IoRequest)
}

// Timer is the external collaborator providing the reader's one time-based
// operation: a 250ms delayed republish, used to back off against an empty
// or not-yet-indexed tail. Implementations must arrange for fn to run
// serialized with all other calls into the reader (see package doc).
type Timer interface {
	Schedule(d time.Duration, fn func())
}

// SubscriptionPort is the reader's Output Port: the three message kinds it
// publishes to the downstream subscription layer.
type SubscriptionPort interface {
	PublishCommittedEvent(CommittedEventDistributed)
	PublishIdle(EventReaderIdle)
	PublishEof(EventReaderEof)
}

// Metrics is an optional ambient observer of reader internals. A nil
// Metrics is never dereferenced; Coordinator guards every call.
type Metrics interface {
	SetMode(tfMode bool)
	IncDelivered()
	SetBufferDepth(stream StreamKey, depth int)
	SetCheckpointPosition(pos TfPos)
	SetLastDelivered(pos TfPos)
}
