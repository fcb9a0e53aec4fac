package goldfs

import (
	"io"
	"log"
)

// WithLogger overrides the default logger (log.Default()) a Volume uses for
// its terse mount/format boundary messages.
func WithLogger(l *log.Logger) Option {
	return func(g *geometry) error {
		g.log = l
		return nil
	}
}

// WithLogOutput is a convenience for silencing or redirecting logging
// without constructing a *log.Logger by hand (e.g. WithLogOutput(io.Discard)
// in tests).
func WithLogOutput(w io.Writer) Option {
	return func(g *geometry) error {
		g.log = log.New(w, "", log.LstdFlags)
		return nil
	}
}
