// Package module wires batch intake and mounts its HTTP endpoints
package module

import (
	"cdrflow/internal/modkit"
	"cdrflow/internal/modkit/httpkit"
	"cdrflow/internal/services/intake/domain"
	ihttp "cdrflow/internal/services/intake/http"
	"cdrflow/internal/services/intake/service"
)

// Ports exposed by the intake module
type Ports struct {
	Intake domain.IntakePort
}

// Module implements the intake module
type Module struct {
	deps  modkit.Deps
	opts  Options
	built modkit.Built
	ports Ports
}

// New constructs the intake module. The handoff must be injected with
// modkit.WithPorts.
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	o := FromConfig(deps.Cfg)
	if overrides.MaxBytes != 0 {
		o.MaxBytes = overrides.MaxBytes
	}

	b := modkit.Build(append([]modkit.Option{modkit.WithName("intake")}, opts...)...)
	handoff, ok := modkit.Injected[domain.HandoffPort](b)
	if !ok {
		panic("intake: no handoff injected")
	}

	m := &Module{deps: deps, opts: o, built: b}
	m.ports = Ports{Intake: service.New(handoff)}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.built.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	mount := func(sub httpkit.Router) {
		if len(m.built.Mw) > 0 {
			sub.Use(m.built.Mw...)
		}
		sub = m.built.Subrouter(sub)
		ihttp.Register(sub, m.ports.Intake, ihttp.Options{
			MaxBytes: m.opts.MaxBytes,
			Health:   m.deps.Health,
		})
		m.built.Register(sub)
	}
	if m.built.Prefix != "" {
		r.Route(m.built.Prefix, mount)
		return
	}
	r.Group(mount)
}
