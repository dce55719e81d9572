package reader

// Options configures a new reader. EventTypes and FromPositions are
// required; the rest default to their zero value's natural meaning.
type Options struct {
	EventTypes     []string
	FromTfPos      TfPos
	FromPositions  map[StreamKey]int32
	ResolveLinkTos bool
	StopOnEof      bool
	MaxDeliveries  *uint64
	// User is the opaque principal token threaded through outbound reads
	// for authorization by the external transport. This reader never
	// inspects it.
	User string
}

// WithMaxDeliveries bounds the reader to n deliveries (stop-after-N).
func WithMaxDeliveries(n uint64) func(*Options) {
	return func(o *Options) { o.MaxDeliveries = &n }
}

// WithStopOnEof requests disposal upon the first TF-log EOF.
func WithStopOnEof() func(*Options) {
	return func(o *Options) { o.StopOnEof = true }
}

// WithResolveLinkTos passes resolveLinkTos through on index-stream reads.
func WithResolveLinkTos() func(*Options) {
	return func(o *Options) { o.ResolveLinkTos = true }
}

// validate checks the construction invariants: every configured event
// type must have a matching entry in FromPositions, and vice versa.
func (o Options) validate() error {
	if len(o.EventTypes) == 0 {
		return ErrNoEventTypes
	}
	if len(o.FromPositions) != len(o.EventTypes) {
		return ErrPositionsMismatch
	}
	for _, t := range o.EventTypes {
		if _, ok := o.FromPositions[EventTypeStreamKey(t)]; !ok {
			return ErrPositionsMismatch
		}
	}
	return nil
}
