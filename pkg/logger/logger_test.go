package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNew_FormatterByEnvironment(t *testing.T) {
	prod := New("production", "warn")
	assert.IsType(t, &logrus.JSONFormatter{}, prod.Formatter)
	assert.Equal(t, logrus.WarnLevel, prod.Level)

	dev := New("development", "debug")
	assert.IsType(t, &logrus.TextFormatter{}, dev.Formatter)
	assert.Equal(t, logrus.DebugLevel, dev.Level)
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log := New("development", "loud")
	assert.Equal(t, logrus.InfoLevel, log.Level)
}

func TestWithContext_AddsRequestAndTrace(t *testing.T) {
	var buf bytes.Buffer
	log := New("production", "info")
	log.SetOutput(&buf)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "host/abc-000001")
	ctx = trace.ContextWithSpanContext(ctx, sc)

	WithContext(ctx, log).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "host/abc-000001", entry["request_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestWithContext_EmptyContext(t *testing.T) {
	var buf bytes.Buffer
	log := New("production", "info")
	log.SetOutput(&buf)

	WithContext(context.Background(), log).Info("plain")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "request_id")
	assert.NotContains(t, entry, "trace_id")
}
