package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextFieldsReachOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "debug", Format: "json", Output: &buf, ServiceName: "vodhub-test"})

	ctx := log.WithContext(context.Background())
	ctx = SetSessionID(ctx, "sess-1")
	ctx = SetSource(ctx, "site-a")

	With(Fields{FieldPage: 3}).Info(ctx, "page fetched: count=%d", 20)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "page fetched: count=20", line["message"])
	assert.Equal(t, "vodhub-test", line["service"])
	assert.Equal(t, "sess-1", line[FieldSessionID])
	assert.Equal(t, "site-a", line[FieldSource])
	assert.EqualValues(t, 3, line[FieldPage])
	assert.Equal(t, "sess-1", GetFieldString(ctx, FieldSessionID))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, GetDefault(), FromContext(context.Background()))
	assert.Equal(t, "", GetRequestID(context.Background()))
}

func TestTextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: "warn", Format: "text", Output: &buf})

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
