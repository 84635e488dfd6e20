package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewParsesLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{level: "debug", want: zerolog.DebugLevel},
		{level: "INFO", want: zerolog.InfoLevel},
		{level: " warn ", want: zerolog.WarnLevel},
		{level: "error", want: zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		log := New(tt.level)
		assert.Equal(t, tt.want, log.GetLevel(), "level %q", tt.level)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	for _, level := range []string{"", "verbose", "9"} {
		log := New(level)
		assert.Equal(t, zerolog.InfoLevel, log.GetLevel(), "level %q", level)
	}
}

// The root logger is a value; event constructors must chain off an
// addressable variable, the way main assigns it before use.
func TestNewReturnsUsableLogger(t *testing.T) {
	log := New("info")
	log.Info().Str("k", "v").Msg("ok")
	log.Error().Msg("ok")
}
