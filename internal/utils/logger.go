package utils

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger.
var Log = logrus.New()

func init() {
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	Log.SetOutput(os.Stdout)
}

// InitLogger applies level ("debug", "info", ...) and format ("text" or "json").
func InitLogger(level, format string) {
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		Log.SetLevel(lvl)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetLogOutput redirects the logger, mostly for tests.
func SetLogOutput(w io.Writer) {
	Log.SetOutput(w)
}

type requestIDKey struct{}

// WithRequestID stores the inbound request id on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(id))
}

// RequestIDFrom returns the id stored by WithRequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func eventFields(requestID, module, action string) logrus.Fields {
	return logrus.Fields{
		"module":     strings.ToUpper(module),
		"action":     action,
		"request_id": strings.TrimSpace(requestID),
	}
}

// LogEvent prints standardized log line with module/action/request_id.
// Avoid logging sensitive payload; message should be summarized.
func LogEvent(requestID, module, action, message string) {
	Log.WithFields(eventFields(requestID, module, action)).Info(message)
}

// LogError is LogEvent at error level with the cause attached.
func LogError(requestID, module, action string, err error) {
	Log.WithFields(eventFields(requestID, module, action)).WithError(err).Error(action + " failed")
}

// LogSenderEvent is LogEvent for a chat sender. request_id is taken from
// ctx; the sender gets its own field.
func LogSenderEvent(ctx context.Context, sender, module, action, message string) {
	Log.WithFields(eventFields(RequestIDFrom(ctx), module, action)).
		WithField("sender", sender).
		Info(message)
}

// LogSenderError is LogSenderEvent at error level.
func LogSenderError(ctx context.Context, sender, module, action string, err error) {
	Log.WithFields(eventFields(RequestIDFrom(ctx), module, action)).
		WithField("sender", sender).
		WithError(err).
		Error(action + " failed")
}
