package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"chatty", slog.LevelWarn},
		{"", slog.LevelWarn},
	}

	for _, tt := range tests {
		level, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, level, "ParseLevel(%q)", tt.in)
	}
}

func TestTextHandlerFormatsRecords(t *testing.T) {
	var buf strings.Builder
	h := &textHandler{
		handler: slog.NewTextHandler(os.Stderr, nil),
		writer:  &buf,
	}

	log := slog.New(h)
	log.Info("tool executed", "tool", "brave_search", "took", "120ms")

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "INFO tool executed"), "line = %q", line)
	assert.Contains(t, line, "tool=brave_search")
	assert.Contains(t, line, "took=120ms")
	assert.False(t, strings.Contains(line, "\033["), "no color off-terminal")
}

func TestTextHandlerVerboseAddsTimestamp(t *testing.T) {
	var buf strings.Builder
	h := &textHandler{
		handler: slog.NewTextHandler(os.Stderr, nil),
		writer:  &buf,
		verbose: true,
	}

	slog.New(h).Warn("slow request")

	line := buf.String()
	assert.Regexp(t, `^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2} WARN slow request`, line)
}

func TestOpenLogFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maestro.log")

	file, closeFn, err := OpenLogFile(path)
	require.NoError(t, err)
	_, err = file.WriteString("first\n")
	require.NoError(t, err)
	closeFn()

	file, closeFn, err = OpenLogFile(path)
	require.NoError(t, err)
	_, err = file.WriteString("second\n")
	require.NoError(t, err)
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestGetLoggerLazyInit(t *testing.T) {
	defaultLogger = nil
	log := GetLogger()
	require.NotNil(t, log)
	assert.Same(t, log, GetLogger())
}
