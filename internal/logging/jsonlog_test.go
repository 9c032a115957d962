package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogWritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "info")
	t.Cleanup(func() { Setup(os.Stderr, "") })

	Debug("hidden", nil)
	Info("fetch_ok", map[string]any{"count": 3})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var e map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &e))
	require.Equal(t, "fetch_ok", e["msg"])
	require.Equal(t, "INFO", e["level"])
	require.EqualValues(t, 3, e["count"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	require.Equal(t, slog.LevelError, ParseLevel(""))
	require.Equal(t, slog.LevelError, ParseLevel("loud"))
}
