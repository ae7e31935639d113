// Package http provides the meta endpoints: liveness, readiness per backend,
// build and service info
package http

import (
	"context"
	"net/http"
	"time"

	"cdrflow/internal/core/version"
	"cdrflow/internal/modkit/httpkit"
	perr "cdrflow/internal/platform/errors"
	"cdrflow/internal/platform/queue"
)

// Pinger is satisfied by backends that expose Ping
type Pinger interface {
	Ping(context.Context) error
}

// Deps are the handler dependencies. Nil backends are reported as skipped.
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Backends    map[string]Pinger
	Handoff     interface{ Stats() queue.Stats }
	ReadyWithin time.Duration
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.ReadyWithin <= 0 {
		d.ReadyWithin = 2 * time.Second
	}
	h := &handlers{deps: d}
	httpkit.GetJSON(r, "/health", h.health)
	httpkit.GetJSON(r, "/ready", h.ready)
	httpkit.GetJSON(r, "/version", h.version)
	httpkit.GetJSON(r, "/service", h.service)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// ReadyCheck is the outcome of pinging one backend
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail skipped
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status"` // ok fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// ServiceResponse describes the running service
type ServiceResponse struct {
	Name    string       `json:"name"`
	Started string       `json:"started"`
	Uptime  int64        `json:"uptime"`
	Handoff *queue.Stats `json:"handoff,omitempty"`
}

func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ready answers 503 with the same body when any configured backend fails
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.ReadyWithin)
	defer cancel()

	out := ReadyResponse{Status: "ok", Now: time.Now().UTC().Format(time.RFC3339)}
	for _, name := range []string{"pg", "ch", "redis"} {
		c := ReadyCheck{Name: name, Status: "skipped"}
		if p := h.deps.Backends[name]; p != nil {
			c.Status = "ok"
			if err := p.Ping(ctx); err != nil {
				c.Status, c.Error = "fail", err.Error()
				out.Status = "fail"
			}
		}
		out.Checks = append(out.Checks, c)
	}
	if out.Status != "ok" {
		return httpkit.ErrorWith(perr.Unavailablef("backend not ready"), out), nil
	}
	return out, nil
}

func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}

func (h *handlers) service(_ *http.Request) (any, error) {
	out := ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(h.deps.StartedAt) / time.Second),
	}
	if h.deps.Handoff != nil {
		st := h.deps.Handoff.Stats()
		out.Handoff = &st
	}
	return out, nil
}
