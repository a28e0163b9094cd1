package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Swind/go-looper/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestLogger_WritesTypedFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf))

	l.Warn("sending message to a handler on a dead looper",
		core.F("looper", "ui"),
		core.F("what", 7),
		core.F("dispatched", int64(3)),
		core.F("safe", true),
		core.F("err", errors.New("closed")),
		core.F("obj", []int{1, 2}),
	)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	got := lines[0]
	assert.Equal(t, "warn", got["level"])
	assert.Equal(t, "sending message to a handler on a dead looper", got["message"])
	assert.Equal(t, "ui", got["looper"])
	assert.Equal(t, float64(7), got["what"])
	assert.Equal(t, float64(3), got["dispatched"])
	assert.Equal(t, true, got["safe"])
	assert.Equal(t, "closed", got["err"])
	assert.Equal(t, []any{float64(1), float64(2)}, got["obj"])
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf).Level(zerolog.InfoLevel))

	l.Debug("hidden", core.F("k", "v"))
	l.Info("shown")
	l.Error("also shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "error", lines[1]["level"])
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf)).With(core.F("looper", "io"))

	l.Info("started")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "io", lines[0]["looper"])
}

func TestLevelOut_RoutesByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	prevDebug, prevError := debugOut, errorOut
	debugOut, errorOut = &stdout, &stderr
	defer func() { debugOut, errorOut = prevDebug, prevError }()

	l := NewLeveled(zerolog.DebugLevel)
	l.Info("to stdout")
	l.Error("to stderr")

	assert.Contains(t, stdout.String(), "to stdout")
	assert.NotContains(t, stdout.String(), "to stderr")
	assert.Contains(t, stderr.String(), "to stderr")
}

// TestLogger_AsLooperLogger verifies the adapter plugs into a looper
func TestLogger_AsLooperLogger(t *testing.T) {
	var buf syncBuffer
	l := New(zerolog.New(&buf).Level(zerolog.WarnLevel))

	ht := core.NewHandlerThread("logged", &core.LooperConfig{Logger: l})
	ht.Start()
	h, err := ht.NewHandler(t.Context(), nil)
	require.NoError(t, err)
	require.True(t, ht.Quit())
	require.NoError(t, ht.Wait())

	assert.ErrorIs(t, h.SendEmptyMessage(9), core.ErrQueueClosed)
	assert.Contains(t, buf.String(), `"handler"`)
	assert.Contains(t, buf.String(), `"what":9`)
	assert.Contains(t, buf.String(), `"looper":"logged"`)
}
