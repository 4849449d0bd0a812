package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("debug", &buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-42")
	log.WithContext(ctx).WithField("records", 3).Info("Reconciled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "Reconciled", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.EqualValues(t, 3, entry["records"])
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("chatty", &buf)

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}
