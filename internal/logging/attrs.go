package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Ints logs an index list such as boundaries or keyframes.
func Ints(key string, values []int) Attr { return slog.Any(key, values) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(noopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// eventAdvice holds the default hint and impact for an event type.
type eventAdvice struct {
	hint   string
	impact string
}

// adviceByPrefix is matched against the event type; the first prefix that
// matches wins.
var adviceByPrefix = []struct {
	prefix string
	advice eventAdvice
}{
	{"cache_", eventAdvice{
		hint:   "rerun with --no-cache or run `keyframer cache clear`",
		impact: "keyframes are computed without the result cache",
	}},
	{"output_", eventAdvice{
		hint:   "pass --output with another directory or empty this one",
		impact: "existing keyframes are left untouched",
	}},
	{"extract_", eventAdvice{
		hint:   "remove the frames directory to force a fresh extraction",
		impact: "frames from a previous run are used as-is",
	}},
	{"metrics_", eventAdvice{
		hint:   "check metrics.textfile in the configuration",
		impact: "run metrics were not exported",
	}},
	{"run_", eventAdvice{
		hint:   "run `keyframer deps` and retry with --log-level debug",
		impact: "no keyframes were written",
	}},
}

var fallbackAdvice = eventAdvice{
	hint:   "retry with --log-level debug for details",
	impact: "the run continued with reduced output",
}

func adviceFor(eventType string) eventAdvice {
	for _, entry := range adviceByPrefix {
		if strings.HasPrefix(eventType, entry.prefix) {
			return entry.advice
		}
	}
	return fallbackAdvice
}

func hasAttrKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// WarnWithContext logs a warning carrying event_type, error_hint and impact.
// Missing hint and impact fields default to the advice for eventType.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	advice := adviceFor(eventType)
	if !hasAttrKey(attrs, FieldEventType) {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !hasAttrKey(attrs, FieldErrorHint) {
		attrs = append(attrs, String(FieldErrorHint, advice.hint))
	}
	if !hasAttrKey(attrs, FieldImpact) {
		attrs = append(attrs, String(FieldImpact, advice.impact))
	}
	logger.Warn(msg, attrsToArgs(attrs)...)
}

// ErrorWithContext logs an error carrying event_type and error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	if !hasAttrKey(attrs, FieldEventType) {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !hasAttrKey(attrs, FieldErrorHint) {
		attrs = append(attrs, String(FieldErrorHint, adviceFor(eventType).hint))
	}
	logger.Error(msg, attrsToArgs(attrs)...)
}

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (noopHandler) Handle(context.Context, slog.Record) error { return nil }

func (noopHandler) WithAttrs([]slog.Attr) slog.Handler { return noopHandler{} }

func (noopHandler) WithGroup(string) slog.Handler { return noopHandler{} }
