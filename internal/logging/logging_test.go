package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"verb", zerolog.TraceLevel},
		{"INFO", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"silent", zerolog.Disabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.True(t, errors.Is(err, ErrLevel))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", &buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("path", "a.nev").Msg("retrying")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "retrying")
	assert.Contains(t, out, "path=a.nev")
	assert.Contains(t, out, "run=")
	// Not a terminal, so no color codes.
	assert.NotContains(t, out, "\x1b[")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewJSON("info", &buf)
	require.NoError(t, err)

	log.Info().Int("trains", 2).Msg("loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "loaded", entry["message"])
	assert.Equal(t, float64(2), entry["trains"])
	assert.Len(t, entry["run"], 36)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("nope", &bytes.Buffer{})
	assert.Error(t, err)
}
