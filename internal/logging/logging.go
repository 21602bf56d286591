// Package logging builds the logrus logger used by the updater.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ConsoleOutput selects stderr when used as the log file.
const ConsoleOutput = "console"

// Options configures New.
type Options struct {
	Level      string
	File       string
	Colors     bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Output overrides stderr for console logging.
	Output io.Writer
}

// New creates a logger. Console output renders colour markup when Colors is
// set and the terminal supports it; file output is rotated and never coloured.
func New(opts Options) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)

	var out io.Writer = os.Stderr
	if opts.Output != nil {
		out = opts.Output
	}
	colors := opts.Colors

	if opts.File != "" && opts.File != ConsoleOutput {
		out = &lumberjack.Logger{
			Filename:   filepath.ToSlash(opts.File),
			MaxSize:    orDefault(opts.MaxSizeMB, 5), // MB
			MaxBackups: orDefault(opts.MaxBackups, 10),
			MaxAge:     orDefault(opts.MaxAgeDays, 30), // days
			Compress:   true,
		}
		colors = false
	}
	logger.SetOutput(out)

	profile := termenv.Ascii
	if colors {
		profile = termenv.NewOutput(out).EnvColorProfile()
	}

	logger.SetFormatter(&MarkupFormatter{
		Formatter: &logrus.TextFormatter{
			DisableColors: profile == termenv.Ascii,
			FullTimestamp: true,
		},
		Profile: profile,
	})
	return logger, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
