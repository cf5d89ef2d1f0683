package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	cases := []struct {
		name        string
		level       string
		debugLogged bool
		warnLogged  bool
	}{
		{"debug level", "debug", true, true},
		{"warn level", "warn", false, true},
		{"error level", "error", false, false},
		{"invalid falls back to info", "verbose", false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := setup(tc.level, &buf)
			require.NotNil(t, log)

			log.Debug("debug message")
			log.Warn("warn message")

			out := buf.String()
			assert.Equal(t, tc.debugLogged, strings.Contains(out, "debug message"))
			assert.Equal(t, tc.warnLogged, strings.Contains(out, "warn message"))
		})
	}
}

func TestSetupEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := setup("info", &buf)

	log.Info("hello", "task_id", "abc")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "abc", entry["task_id"])
}

func TestFromContext(t *testing.T) {
	t.Run("returns default when unset", func(t *testing.T) {
		log := FromContext(context.Background())
		assert.Equal(t, slog.Default(), log)
	})

	t.Run("returns logger from context", func(t *testing.T) {
		custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		ctx := WithLogger(context.Background(), custom)
		assert.Same(t, custom, FromContext(ctx))
	})

	t.Run("tolerates nil context", func(t *testing.T) {
		//nolint:staticcheck // deliberately exercising the nil-context path
		assert.Equal(t, slog.Default(), FromContext(nil))
	})
}
