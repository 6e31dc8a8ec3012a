package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the process-wide logger. It is usable before Init and writes JSON to stdout.
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the global logger for a binary.
func Init(serviceName string, isDevelopment bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var output io.Writer = os.Stdout
	if isDevelopment {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	Logger = zerolog.New(output).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	log.Logger = Logger
}

// WithContext returns a logger carrying the trace and span ids found in ctx.
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Logger.With().Logger()

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		l = l.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return &l
}

func Info(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Info()
}

func Error(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Error()
}

func Debug(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Debug()
}

func Warn(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Warn()
}

// SetLevel sets the global log level; unknown names fall back to info.
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
