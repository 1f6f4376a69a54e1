package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNewWithConfigWritesPrefixedLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig(&buf, "engine", log.InfoLevel, false, false, log.TextFormatter)

	l.Debug("hidden")
	l.Info("indexed", "items", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "engine")
	assert.Contains(t, out, "items=3")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, log.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, log.WarnLevel, ParseLevel("nonsense"))
}
