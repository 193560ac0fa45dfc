package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")
	log.Info().Msg("gizli")
	log.Warn().Str("component", "checkout").Msg("görünür")

	out := buf.String()
	assert.NotContains(t, out, "gizli")
	assert.Contains(t, out, `"component":"checkout"`)
	assert.Contains(t, out, `"time"`)
}

func TestNewWithWriterInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "çok-yüksek")
	log.Debug().Msg("debug")
	log.Info().Msg("info")
	assert.NotContains(t, buf.String(), `"message":"debug"`)
	assert.Contains(t, buf.String(), `"message":"info"`)
}
