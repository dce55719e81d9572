// Package readertest provides deterministic fakes for driving a
// reader.Coordinator in tests, without a real transport or wall clock.
package readertest

import (
	"time"

	"github.com/chronicleio/tfreader/go/reader"
)

// FakeIOPort records every IoRequest enqueued by a Coordinator, in order,
// so a test can assert on exactly what was asked for.
type FakeIOPort struct {
	Requests []reader.IoRequest
}

func (f *FakeIOPort) EnqueueIO(req reader.IoRequest) {
	f.Requests = append(f.Requests, req)
}

// Pop removes and returns the oldest recorded request, or nil if none
// remain. Tests drive completions by popping a request, building the
// corresponding *Completed message, and delivering it back to the
// Coordinator -- the same round trip the real host performs.
func (f *FakeIOPort) Pop() reader.IoRequest {
	if len(f.Requests) == 0 {
		return nil
	}
	req := f.Requests[0]
	f.Requests = f.Requests[1:]
	return req
}

// pendingTimer is one Schedule call awaiting a manual Fire.
type pendingTimer struct {
	delay time.Duration
	fn    func()
}

// FakeTimer never runs a real clock. Tests advance it explicitly by calling
// FireAll (or FireNext), giving deterministic control over the 250ms retry
// backoff the Coordinator otherwise schedules via a production timer.Service.
type FakeTimer struct {
	pending []pendingTimer
}

func (f *FakeTimer) Schedule(d time.Duration, fn func()) {
	f.pending = append(f.pending, pendingTimer{delay: d, fn: fn})
}

// Pending reports how many timers are currently outstanding.
func (f *FakeTimer) Pending() int { return len(f.pending) }

// FireNext invokes the oldest scheduled callback, if any, and reports
// whether one fired.
func (f *FakeTimer) FireNext() bool {
	if len(f.pending) == 0 {
		return false
	}
	next := f.pending[0]
	f.pending = f.pending[1:]
	next.fn()
	return true
}

// FireAll repeatedly fires the oldest pending timer until none remain,
// including any newly scheduled as a side effect of firing one.
func (f *FakeTimer) FireAll() {
	for f.FireNext() {
	}
}

// FakeSubscriptionPort records every message published through the
// reader's Output Port, in order.
type FakeSubscriptionPort struct {
	Committed []reader.CommittedEventDistributed
	Idles     []reader.EventReaderIdle
	Eofs      []reader.EventReaderEof
}

func (f *FakeSubscriptionPort) PublishCommittedEvent(msg reader.CommittedEventDistributed) {
	f.Committed = append(f.Committed, msg)
}

func (f *FakeSubscriptionPort) PublishIdle(msg reader.EventReaderIdle) {
	f.Idles = append(f.Idles, msg)
}

func (f *FakeSubscriptionPort) PublishEof(msg reader.EventReaderEof) {
	f.Eofs = append(f.Eofs, msg)
}

// NoopMetrics discards every call; it satisfies reader.Metrics for tests
// that don't care about the reported series.
type NoopMetrics struct{}

func (NoopMetrics) SetMode(bool)                         {}
func (NoopMetrics) IncDelivered()                        {}
func (NoopMetrics) SetBufferDepth(reader.StreamKey, int) {}
func (NoopMetrics) SetCheckpointPosition(reader.TfPos)   {}
func (NoopMetrics) SetLastDelivered(reader.TfPos)        {}

var _ reader.IOPort = &FakeIOPort{}
var _ reader.Timer = &FakeTimer{}
var _ reader.SubscriptionPort = &FakeSubscriptionPort{}
var _ reader.Metrics = NoopMetrics{}
