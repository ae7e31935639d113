package modkit

import (
	"context"

	"cdrflow/internal/modkit/repokit"
	"cdrflow/internal/platform/config"
	"cdrflow/internal/platform/logger"
	"cdrflow/internal/platform/store"

	"github.com/redis/go-redis/v9"
)

// Deps holds core dependencies passed to modules. Nil stores mean the
// backend is disabled; modules must nil check the ones they treat as optional.
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
	RDS *redis.Client

	// Health reports backend readiness for health endpoints
	Health interface {
		Guard(ctx context.Context) error
	}
}

// FromStore fills the store backed fields of Deps from an opened store
func FromStore(log logger.Logger, cfg config.Conf, st *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if st != nil {
		d.PG, d.CH, d.RDS, d.Health = st.PG, st.CH, st.RDS, st
	}
	return d
}
