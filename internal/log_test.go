package internal

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	level, ok := ParseLogLevel(" debug ")
	assert.True(t, ok)
	assert.Equal(t, LogLevelDebug, level)

	level, ok = ParseLogLevel("loud")
	assert.False(t, ok)
	assert.Equal(t, LogLevelInfo, level)
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	flags := log.Flags()
	log.SetFlags(0)
	defer log.SetFlags(flags)

	l := NewLogger(LogLevelWarn)
	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)
	assert.Equal(t, "[WARN] shown 2\n", buf.String())

	buf.Reset()
	l.SetLevel(LogLevelTrace)
	l.Trace("now visible")
	assert.Equal(t, "[TRACE] now visible\n", buf.String())
	assert.Equal(t, LogLevelTrace, l.GetLevel())
}

func TestLogger_WithTagsComponentAndSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	flags := log.Flags()
	log.SetFlags(0)
	defer log.SetFlags(flags)

	root := NewLogger(LogLevelInfo)
	scan := root.With("ScanService")
	scan.Debug("hidden")
	assert.Empty(t, buf.String())

	root.SetLevel(LogLevelDebug)
	scan.Debug("run %d", 7)
	assert.Equal(t, "[DEBUG] [ScanService] run 7\n", buf.String())
	assert.Equal(t, LogLevelDebug, scan.GetLevel())
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}
