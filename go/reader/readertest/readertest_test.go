package readertest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFakeTimer_FiresInOrder(t *testing.T) {
	tmr := &FakeTimer{}
	var fired []int
	tmr.Schedule(250*time.Millisecond, func() { fired = append(fired, 1) })
	tmr.Schedule(250*time.Millisecond, func() { fired = append(fired, 2) })

	require.Equal(t, 2, tmr.Pending())
	tmr.FireAll()
	require.Equal(t, 0, tmr.Pending())
	require.Equal(t, []int{1, 2}, fired)
}

func TestFakeTimer_FireNextHandlesRescheduling(t *testing.T) {
	tmr := &FakeTimer{}
	var rounds int
	var schedule func()
	schedule = func() {
		tmr.Schedule(250*time.Millisecond, func() {
			rounds++
			if rounds < 3 {
				schedule()
			}
		})
	}
	schedule()
	tmr.FireAll()
	require.Equal(t, 3, rounds)
}
