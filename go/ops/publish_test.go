package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type appendPublisher struct {
	logs []Log
}

func (p *appendPublisher) PublishLog(log Log) { p.logs = append(p.logs, log) }
func (p *appendPublisher) Level() LogLevel    { return LogLevelInfo }
func (p *appendPublisher) Source() string     { return "test-reader" }

func TestLogPublishing(t *testing.T) {
	var publisher = &appendPublisher{}

	PublishLog(publisher, LogLevelInfo,
		"the log message",
		"an-int", 42,
		"a-float", 3.14159,
		"a-str", "the string",
		"nested", map[string]interface{}{
			"one": 1,
			"two": 2,
		},
		"error", fmt.Errorf("failed to frobulate: %w",
			fmt.Errorf("squince doesn't look ship-shape")),
		"cancelled", context.Canceled,
	)
	PublishLog(publisher, LogLevelTrace, "my trace level is filtered out")

	require.Equal(t, []Log{
		{
			Timestamp: publisher.logs[0].Timestamp,
			Level:     LogLevelInfo,
			Message:   "the log message",
			Fields: json.RawMessage(`{"a-float":3.14159,` +
				`"a-str":"the string",` +
				`"an-int":42,` +
				`"cancelled":"context canceled",` +
				`"error":"failed to frobulate: squince doesn't look ship-shape",` +
				`"nested":{"one":1,"two":2}}`),
			Source: "test-reader",
		},
	}, publisher.logs)
}

func TestPublishLog_PanicsOnOddFields(t *testing.T) {
	require.Panics(t, func() {
		PublishLog(&appendPublisher{}, LogLevelInfo, "bad", "only-key")
	})
}
