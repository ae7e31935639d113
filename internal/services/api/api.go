// Package api composes the cdrflow HTTP API from its modules
package api

import (
	"net/http"
	"time"

	"cdrflow/internal/modkit"
	"cdrflow/internal/modkit/httpkit"
	"cdrflow/internal/platform/config"
	"cdrflow/internal/platform/net/middleware"
	"cdrflow/internal/platform/queue"

	intakedom "cdrflow/internal/services/intake/domain"
	intakemod "cdrflow/internal/services/intake/module"
	metamod "cdrflow/internal/services/meta/module"
)

// Handoff is the queue intake submits to; its stats are shown on /meta/service
type Handoff interface {
	intakedom.HandoffPort
	Stats() queue.Stats
}

// Options are the API options
type Options struct {
	// Config is the CORE_ view; API_* keys are read under it
	Config  config.Conf
	Deps    modkit.Deps
	Handoff Handoff
	Service string
}

// Mount installs the root middleware stack and the v1 modules on r. It must
// run before any other route is added to r.
func Mount(r httpkit.Router, opt Options) []modkit.Module {
	api := opt.Config.Prefix("API_")
	r.Use(middleware.Stack(
		middleware.CORSOptions{AllowedOrigins: api.MayCSV("CORS_ORIGINS", nil)},
		api.MayDuration("SLOW_REQUEST", time.Second),
		api.MayDuration("REQUEST_TIMEOUT", 60*time.Second),
	)...)

	mods := []modkit.Module{
		metamod.New(opt.Deps, opt.Service, modkit.WithPorts[Handoff](opt.Handoff)),
		intakemod.New(opt.Deps, intakemod.Options{}, modkit.WithPorts[intakedom.HandoffPort](opt.Handoff)),
	}

	httpkit.MountVersion(r, "v1", []func(http.Handler) http.Handler{middleware.Throttle(api.MayInt("MAX_CONCURRENT", 64))}, func(v1 httpkit.Router) {
		for _, m := range mods {
			opt.Deps.Log.Debug().Str("module", m.Name()).Msg("mounting module")
			m.MountRoutes(v1)
		}
	})
	return mods
}
