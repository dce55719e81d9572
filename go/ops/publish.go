package ops

import (
	"encoding/json"
	"fmt"
	"time"
)

// Publisher of operation Logs: an ambient, application-level logging sink
// a host may wire up alongside a reader -- distinct from the reader-domain
// SubscriptionPort, which carries committed events rather than
// diagnostics. The reader itself takes no Publisher; it logs via logrus.
type Publisher interface {
	// PublishLog publishes a Log instance.
	PublishLog(Log)
	// Level reports the minimum level this Publisher will accept; callers
	// may use it to skip building a Log they know will be dropped.
	Level() LogLevel
	// Source identifies the producer attached to every published Log.
	Source() string
}

// PublishLog constructs and publishes a Log using the given Publisher.
// Fields must be pairs of a string key followed by a JSON-encodable
// interface{} value. PublishLog panics if fields are odd, or if a field
// isn't a string, or if it cannot be encoded as JSON.
func PublishLog(publisher Publisher, level LogLevel, message string, fields ...interface{}) {
	if publisher.Level() > level {
		return
	}

	// Incorrect fields are a developer error, not a runtime one.
	if len(fields)%2 != 0 {
		panic(fmt.Sprintf("fields must be of even length: %#v", fields))
	}

	var m = make(map[string]interface{}, len(fields)/2)
	for i := 0; i != len(fields); i += 2 {
		var key = fields[i].(string)
		var value = fields[i+1]

		// Errors typically marshal as '{}', so cast them to their string form.
		if err, ok := value.(error); ok {
			value = err.Error()
		}

		m[key] = value
	}

	var fieldsRaw, err = json.Marshal(m)
	if err != nil {
		panic(err)
	}

	publisher.PublishLog(Log{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    json.RawMessage(fieldsRaw),
		Source:    publisher.Source(),
	})
}
