// Package module wires the meta endpoints into the API
package module

import (
	"context"
	"net/http"
	"time"

	"cdrflow/internal/modkit"
	"cdrflow/internal/modkit/httpkit"
	"cdrflow/internal/platform/queue"
	str "cdrflow/internal/platform/strings"

	metahttp "cdrflow/internal/services/meta/http"
)

// Module implements modkit.Module
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// pingFunc adapts a ping function to metahttp.Pinger
type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// New constructs the meta module. Queue stats are reported when the ports
// injected with modkit.WithPorts have a Stats method.
func New(deps modkit.Deps, service string, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	d := metahttp.Deps{
		ServiceName: str.OrDefault(service, "cdrflow-api"),
		StartedAt:   time.Now(),
		Backends:    backends(deps),
	}
	if s, ok := modkit.Injected[interface{ Stats() queue.Stats }](b); ok {
		d.Handoff = s
	}

	external := b.Register
	return &Module{
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		register: func(r httpkit.Router) {
			metahttp.Register(r, d)
			external(r)
		},
	}
}

func backends(deps modkit.Deps) map[string]metahttp.Pinger {
	out := map[string]metahttp.Pinger{}
	if p, ok := deps.PG.(metahttp.Pinger); ok {
		out["pg"] = p
	}
	if p, ok := deps.CH.(metahttp.Pinger); ok {
		out["ch"] = p
	}
	if deps.RDS != nil {
		rdb := deps.RDS
		out["redis"] = pingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	return out
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.Prefix(), func(rr httpkit.Router) {
		if len(m.mws) > 0 {
			rr.Use(m.mws...)
		}
		m.register(m.subrouter(rr))
	})
}

// Name implements modkit.Module
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the mount prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports implements modkit.Module; meta exposes none
func (m *Module) Ports() any { return nil }
