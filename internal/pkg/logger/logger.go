package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"agentic-chatbot/internal/config"
)

type Fields = logrus.Fields

// Logger wraps logrus with the service/agent helpers used across the codebase.
type Logger struct {
	entry *logrus.Entry
}

func New(cfg config.LogConfig) (*Logger, error) {
	base := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	base.SetLevel(level)

	switch cfg.Format {
	case "text":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		base.SetFormatter(&logrus.JSONFormatter{})
	}

	var output io.Writer
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}
	base.SetOutput(output)

	return &Logger{entry: logrus.NewEntry(base)}, nil
}

func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(pairsToFields(keysAndValues)).Debug(msg)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(pairsToFields(keysAndValues)).Info(msg)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(pairsToFields(keysAndValues)).Warn(msg)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(pairsToFields(keysAndValues)).Error(msg)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(pairsToFields(keysAndValues)).Fatal(msg)
}

// LogService records one operation against an external service.
func (l *Logger) LogService(service, operation string, duration time.Duration, details map[string]interface{}, err error) {
	fields := Fields{
		"service":     service,
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
	}
	for k, v := range details {
		fields[k] = v
	}

	entry := l.entry.WithFields(fields)
	if err != nil {
		entry.WithError(err).Error("service operation failed")
		return
	}
	entry.Debug("service operation completed")
}

// LogAgent records one agent step inside a routed request.
func (l *Logger) LogAgent(conversationID, agent, operation string, duration time.Duration, details map[string]interface{}, err error) {
	fields := Fields{
		"agent":       agent,
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
	}
	if conversationID != "" {
		fields["conversation_id"] = conversationID
	}
	for k, v := range details {
		fields[k] = v
	}

	entry := l.entry.WithFields(fields)
	if err != nil {
		entry.WithError(err).Error("agent step failed")
		return
	}
	entry.Info("agent step completed")
}

func pairsToFields(keysAndValues []interface{}) Fields {
	fields := Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
