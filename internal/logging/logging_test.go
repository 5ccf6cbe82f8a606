package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "info", "json")
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Str("peer", "10.0.0.2:5000").Msg("client connected")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "client connected", line["message"])
	assert.Equal(t, "10.0.0.2:5000", line["peer"])
	assert.Equal(t, "info", line["level"])
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "debug", "console")
	require.NoError(t, err)

	log.Debug().Msg("waiting for connection")
	assert.Contains(t, buf.String(), "waiting for connection")
	assert.Contains(t, buf.String(), "DBG")
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(nil, "loud", "json")
	assert.Error(t, err)

	_, err = New(nil, "info", "xml")
	assert.Error(t, err)
}
