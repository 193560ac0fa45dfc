package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New: zaman damgalı JSON logger. Geçersiz seviye info'ya düşer.
func New(level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
