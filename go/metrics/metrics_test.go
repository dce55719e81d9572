package metrics

import (
	"testing"

	"github.com/chronicleio/tfreader/go/reader"
)

func TestReporter_SatisfiesMetricsWithoutPanicking(t *testing.T) {
	r := NewReporter("test-reader")
	r.SetMode(true)
	r.IncDelivered()
	r.SetBufferDepth(reader.EventTypeStreamKey("A"), 3)
	r.SetCheckpointPosition(reader.TfPos{Commit: 1, Prepare: 2})
	r.SetLastDelivered(reader.TfPos{Commit: 3, Prepare: 4})
}
