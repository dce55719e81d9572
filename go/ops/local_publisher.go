package ops

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// LocalPublisher publishes ops Logs to the local process stderr via logrus.
type LocalPublisher struct {
	source string
	level  LogLevel
}

var _ Publisher = &LocalPublisher{}

// NewLocalPublisher returns a Publisher tagging every Log with source and
// filtering to logrus's currently configured level.
func NewLocalPublisher(source string) *LocalPublisher {
	return &LocalPublisher{source: source, level: logrusLogLevel()}
}

func (p *LocalPublisher) Source() string { return p.source }

func (p *LocalPublisher) Level() LogLevel { return p.level }

func (*LocalPublisher) PublishLog(log Log) {
	var level logrus.Level
	switch log.Level {
	case LogLevelTrace:
		level = logrus.TraceLevel
	case LogLevelDebug:
		level = logrus.DebugLevel
	case LogLevelInfo:
		level = logrus.InfoLevel
	case LogLevelWarn:
		level = logrus.WarnLevel
	default:
		level = logrus.ErrorLevel
	}

	var fields logrus.Fields
	if err := json.Unmarshal(log.Fields, &fields); err != nil {
		logrus.WithFields(logrus.Fields{
			"error":  err,
			"fields": string(log.Fields),
		}).Error("failed to unmarshal log fields")
	}
	logrus.WithFields(fields).WithField("source", log.Source).Log(level, log.Message)
}

// logrusLogLevel maps the current level of the standard logrus logger into
// a LogLevel.
func logrusLogLevel() LogLevel {
	switch logrus.StandardLogger().Level {
	case logrus.TraceLevel:
		return LogLevelTrace
	case logrus.DebugLevel:
		return LogLevelDebug
	case logrus.InfoLevel:
		return LogLevelInfo
	case logrus.WarnLevel:
		return LogLevelWarn
	default:
		return LogLevelError
	}
}
