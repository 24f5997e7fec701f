package eventbroker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestNewMsgCarriesPayloadAndTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	event := newEvent("p1", "u1", "Hello")
	msg, err := newMsg(ctx, SubjectPostCreated, event)
	require.NoError(t, err)

	assert.Equal(t, SubjectPostCreated, msg.Subject)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", propagation.HeaderCarrier(msg.Header).Get("traceparent"))

	var decoded PostEvent
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, "p1", decoded.PostID)
	assert.Equal(t, "u1", decoded.AuthorID)
	assert.Equal(t, "Hello", decoded.Title)
	assert.NotEmpty(t, decoded.EventID)
}

func TestNewEventIDsAreUnique(t *testing.T) {
	a := newEvent("p1", "u1", "")
	b := newEvent("p1", "u1", "")
	assert.NotEqual(t, a.EventID, b.EventID)
}
