package debug

import (
	"context"
	"io"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// RunID tags every event of this process.
var RunID = xid.New().String()

type LoggerOptions struct {
	Level zerolog.Level
	// Pretty writes human readable lines instead of JSON.
	Pretty bool
	Color  bool
}

// WithLogger returns ctx carrying a logger that writes to w.
func WithLogger(ctx context.Context, w io.Writer, opts LoggerOptions) context.Context {
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w, NoColor: !opts.Color}
	}

	return zerolog.New(w).
		Level(opts.Level).
		With().
		Str("run", RunID).
		Logger().
		Hook(CustomTimeHook{WithColor: opts.Color}).
		Hook(CustomCallerHook{WithColor: opts.Color}).
		WithContext(ctx)
}
