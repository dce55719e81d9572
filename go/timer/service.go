// Package timer provides the production Timer used to back a reader's
// delayed re-read requests.
package timer

import "time"

// Service schedules callbacks via time.AfterFunc. It implements
// reader.Timer without importing the reader package, keeping the
// dependency direction from reader -> timer rather than the reverse.
type Service struct{}

// NewService returns a ready-to-use Service. It holds no state: every
// Schedule call owns its own timer, mirroring the host's expectation that
// a fired timer is simply redelivered as a message and never needs to be
// cancelled out from under the reader (see package reader's doc comment on
// its cooperative, single-threaded dispatch model).
func NewService() *Service { return &Service{} }

// Schedule arranges for fn to run once, after d elapses.
func (s *Service) Schedule(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
