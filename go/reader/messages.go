package reader

// ReadResult is the outcome of an underlying stream/log read RPC.
type ReadResult int

const (
	ResultSuccess ReadResult = iota
	ResultNoStream
	// ResultOther stands in for any result code this reader does not
	// understand; receiving it is always fatal, reported as
	// ErrUnsupportedResult.
	ResultOther
)

// Per-read size constants.
const (
	StreamReadCount     = 111
	CheckpointReadCount = 100
	TfReadCount         = 111
	RetryDelayMillis    = 250
)

// --- Inbound messages (publisher -> reader) -------------------------------

// ReadStreamForwardCompleted is the completion of a forward read of a
// type-index stream, or a steady-state forward read of the checkpoint
// stream "$et".
type ReadStreamForwardCompleted struct {
	CorrelationId   string
	StreamId        StreamKey
	Result          ReadResult
	Events          []ResolvedEvent
	NextEventNumber int32
	LastEventNumber int32
}

// ReadStreamBackwardCompleted is the completion of the initial backward
// probe of the checkpoint stream "$et".
type ReadStreamBackwardCompleted struct {
	CorrelationId string
	StreamId      StreamKey
	Result        ReadResult
	Events        []ResolvedEvent
}

// ReadAllForwardCompleted is the completion of a forward TF-log scan.
type ReadAllForwardCompleted struct {
	CorrelationId string
	Result        ReadResult
	Events        []ResolvedEvent
	NextPos       TfPos
	// TfEofPosition is the commit offset of the present end of the TF log,
	// used only to compute TF-mode delivery progress.
	TfEofPosition int64
}

// TimerFired is delivered when a previously scheduled 250ms republish
// timer elapses; Enclosed is the IO request to re-issue.
type TimerFired struct {
	Enclosed IoRequest
}

// --- Outbound IO requests (reader -> publisher) ----------------------------

// IoRequest is the closed set of read requests the reader may emit.
type IoRequest interface{ isIoRequest() }

type ReadStreamForwardRequest struct {
	StreamId        StreamKey
	FromEventNumber int32
	MaxCount        int
	ResolveLinkTos  bool
	User            string
}

func (ReadStreamForwardRequest) isIoRequest() {}

type ReadStreamBackwardRequest struct {
	StreamId        StreamKey
	FromEventNumber int32
	MaxCount        int
	ResolveLinkTos  bool
	User            string
}

func (ReadStreamBackwardRequest) isIoRequest() {}

type ReadAllForwardRequest struct {
	FromPos        TfPos
	MaxCount       int
	ResolveLinkTos bool
	User           string
}

func (ReadAllForwardRequest) isIoRequest() {}

// --- Output Port messages --------------------------------------------------

// CommittedEventDistributed is published for every delivered event. A nil
// ResolvedEvent indicates a bare position heartbeat (unused by this reader
// today, but kept in the message shape for forward compatibility with the
// subscription layer).
type CommittedEventDistributed struct {
	CorrelationId string
	ResolvedEvent *ResolvedEvent
	SafeJoinPos   *TfPos
	Progress      float64
}

// EventReaderIdle is published when every configured stream has reached EOF.
type EventReaderIdle struct {
	CorrelationId string
	Timestamp     int64 // unix nanos
}

// EventReaderEof is published when the reader disposes after exhausting the
// TF log (stopOnEof) or after reaching maxDeliveries.
type EventReaderEof struct {
	CorrelationId    string
	MaxEventsReached bool
}
