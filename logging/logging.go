package logging

// One leveled logger for everything.  The CLI prints to the user with pterm printers;
// this is for the "what did the codec actually do" trail.

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

var Log = pterm.DefaultLogger.WithLevel(pterm.LogLevelWarn).WithWriter(os.Stderr)

var levels = map[string]pterm.LogLevel{
	"trace":    pterm.LogLevelTrace,
	"debug":    pterm.LogLevelDebug,
	"info":     pterm.LogLevelInfo,
	"warn":     pterm.LogLevelWarn,
	"warning":  pterm.LogLevelWarn,
	"error":    pterm.LogLevelError,
	"disabled": pterm.LogLevelDisabled,
	"off":      pterm.LogLevelDisabled,
}

func Parse_level(s string) (pterm.LogLevel, error) {
	l, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return pterm.LogLevelWarn, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// Setup replaces Log. If file is not empty, output goes to both stderr and the file (truncated).
// The returned closer is never nil.
func Setup(level string, file string) (io.Closer, error) {
	l := pterm.LogLevelWarn
	if level != "" {
		var err error
		l, err = Parse_level(level)
		if err != nil {
			return nopCloser{}, err
		}
	}

	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			return closer, err
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = f
	}

	Log = pterm.DefaultLogger.WithLevel(l).WithWriter(w)
	return closer, nil
}

// Quiet silences logging; for tests.
func Quiet() {
	Log = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled).WithWriter(io.Discard)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
