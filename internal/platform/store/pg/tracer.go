package pg

import (
	"context"
	"strings"

	"cdrflow/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one executed statement
type QueryEvent struct {
	SQL       string
	Args      []any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives statement events from the store adapter
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// maxLoggedArgs bounds the args field; batch inserts bind hundreds of values
const maxLoggedArgs = 16

// Tracer logs every statement regardless of the root level, so enabling
// SERVICE_PGSQL_LOG_SQL is enough to see SQL
func Tracer(root logger.Logger) QueryTracer {
	return &zlTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Err != nil {
		evt = z.log.Error()
	} else if ev.Slow {
		evt = z.log.Warn()
	}
	if id := logger.BatchID(ctx); id != "" {
		evt = evt.Str("batch_id", id)
	}
	args := ev.Args
	if len(args) > maxLoggedArgs {
		args = args[:maxLoggedArgs]
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000.0).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Int("nargs", len(ev.Args)).
		Interface("args", args).
		Err(ev.Err).
		Msg("pg query")
}

// compact collapses whitespace runs to single spaces
func compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
