package logging

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global zerolog logger with the given level and output format.
func InitLogger(level string, human bool) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	log.Logger = New(os.Stderr, human)
	zerolog.SetGlobalLevel(lvl)

	return nil
}

// New returns a timestamped logger writing JSON, or console output when human is set.
func New(w io.Writer, human bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	base := zerolog.New(w).With().Timestamp().Logger()
	if human {
		return base.Output(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339Nano,
		})
	}
	return base
}

// ParseLevel maps a configured level name to a zerolog level. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// FormatData renders guest bytes for a log line: printable text as is, anything else as hex.
func FormatData(data []byte) string {
	if utf8.Valid(data) && strings.IndexFunc(string(data), notPrintable) < 0 {
		return string(data)
	}
	return "hex:" + hex.EncodeToString(data)
}

func notPrintable(r rune) bool {
	return !unicode.IsPrint(r) && !unicode.IsSpace(r)
}

// LogCall logs an outgoing boundary call with its encoded argument.
func LogCall(guest, export string, argData []byte) {
	log.Info().
		Str("event", "call_started").
		Str("guest", guest).
		Str("export", export).
		Str("arg_hex", hex.EncodeToString(argData)).
		Int("arg_len", len(argData)).
		Msg("calling guest")
}

// LogResult logs the outcome of a boundary call.
func LogResult(guest, export string, result any, elapsed time.Duration, err error) {
	if err != nil {
		log.Error().
			Str("event", "call_failed").
			Str("guest", guest).
			Str("export", export).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("guest call failed")
		return
	}
	log.Info().
		Str("event", "call_completed").
		Str("guest", guest).
		Str("export", export).
		Interface("result", result).
		Dur("elapsed", elapsed).
		Msg("guest call completed")
}
