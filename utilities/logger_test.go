package utilities

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The logger is package state, so these tests do not run in parallel.

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() {
		SetLogOutput(os.Stdout)
		require.NoError(t, InitLogger("info", "text"))
	})
	return &buf
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"defaults", "info", "text", false},
		{"json debug", "debug", "json", false},
		{"empty format is text", "warn", "", false},
		{"bad level", "loud", "text", true},
		{"bad format", "info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureLogs(t)
			err := InitLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLogRequest_JSONFields(t *testing.T) {
	buf := captureLogs(t)
	require.NoError(t, InitLogger("info", "json"))

	LogRequest("GET", "/api/tasks", "127.0.0.1:1234", "req-1", 200, 15*time.Millisecond)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/api/tasks", entry["path"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.EqualValues(t, 200, entry["status"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogLevels(t *testing.T) {
	buf := captureLogs(t)
	require.NoError(t, InitLogger("info", "text"))

	LogDebug("hidden %d", 1)
	assert.Empty(t, buf.String())

	LogInfo("shown %d", 2)
	LogWarn("careful %s", "now")
	LogError(errors.New("disk full"), "saving tasks")
	out := buf.String()
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "careful now")
	assert.Contains(t, out, "saving tasks")
	assert.Contains(t, out, "disk full")

	assert.Equal(t, logrus.InfoLevel, Logger().GetLevel())
}
