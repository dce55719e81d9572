// Package metrics provides the production Metrics implementation used by a
// reader to report its mode, buffer depths, and delivery progress.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chronicleio/tfreader/go/reader"
)

var deliveredCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tfreader_delivered_events_total",
	Help: "counter of events delivered by a reader instance",
}, []string{"reader"})

var modeGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "tfreader_mode",
	Help: "1 if a reader instance is in TfMode, 0 if still in IndexMode",
}, []string{"reader"})

var bufferDepthGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "tfreader_index_buffer_depth",
	Help: "depth of a reader instance's per-type-index buffer",
}, []string{"reader", "stream"})

var checkpointCommitGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "tfreader_checkpoint_position_commit",
	Help: "commit component of the last-applied index checkpoint position",
}, []string{"reader"})

var lastDeliveredCommitGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "tfreader_last_delivered_commit",
	Help: "commit component of the last position delivered by a reader instance",
}, []string{"reader"})

// Reporter implements reader.Metrics, labeling every series with the
// correlation id of the reader instance it was built for.
type Reporter struct {
	correlationId string
}

var _ reader.Metrics = &Reporter{}

// NewReporter returns a Reporter labeling its series with correlationId.
func NewReporter(correlationId string) *Reporter {
	return &Reporter{correlationId: correlationId}
}

func (r *Reporter) SetMode(tfMode bool) {
	var v float64
	if tfMode {
		v = 1
	}
	modeGauge.WithLabelValues(r.correlationId).Set(v)
}

func (r *Reporter) IncDelivered() {
	deliveredCounter.WithLabelValues(r.correlationId).Inc()
}

func (r *Reporter) SetBufferDepth(stream reader.StreamKey, depth int) {
	bufferDepthGauge.WithLabelValues(r.correlationId, string(stream)).Set(float64(depth))
}

func (r *Reporter) SetCheckpointPosition(pos reader.TfPos) {
	checkpointCommitGauge.WithLabelValues(r.correlationId).Set(float64(pos.Commit))
}

func (r *Reporter) SetLastDelivered(pos reader.TfPos) {
	lastDeliveredCommitGauge.WithLabelValues(r.correlationId).Set(float64(pos.Commit))
}
