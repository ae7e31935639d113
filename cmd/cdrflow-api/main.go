package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"cdrflow/internal/adapters/operators"
	"cdrflow/internal/core/cdr"
	"cdrflow/internal/modkit"
	"cdrflow/internal/modkit/repokit"
	"cdrflow/internal/platform/config"
	"cdrflow/internal/platform/logger"
	phttp "cdrflow/internal/platform/net/http"
	"cdrflow/internal/platform/queue"
	"cdrflow/internal/platform/store"

	"cdrflow/internal/services/api"
	collector "cdrflow/internal/services/collector/service"
	enrich "cdrflow/internal/services/enrich/service"
	recordsdom "cdrflow/internal/services/records/domain"
	recordsrepo "cdrflow/internal/services/records/repo"
	records "cdrflow/internal/services/records/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	root := config.New()
	core := root.Prefix("CORE_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stCfg := store.FromEnv(root, "api")
	if !stCfg.PG.Enabled {
		l.Panic().Msg("SERVICE_PGSQL_DBURL is required")
	}
	st, err := store.Open(ctx, stCfg, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	// operator lookup: source, limiter, then the Redis cache when configured
	lookup, err := operators.NewChain(operators.ConfigFrom(core), redisOf(st))
	if err != nil {
		l.Panic().Err(err).Msg("operator lookup setup failed")
	}

	// sinks: Postgres always, ClickHouse search index when configured
	var index recordsdom.Indexer
	if st.CH != nil {
		index = recordsrepo.NewCHSink(st.CH, core.MayString("RECORDS_SEARCH_TABLE", recordsrepo.SearchTable))
	}
	persist := recordsrepo.NewPGSink(repokit.WithBeginHooks(st.PG,
		repokit.StatementTimeout(core.MayDuration("RECORDS_STATEMENT_TIMEOUT", 30*time.Second))))
	sinks := records.New(persist, index)

	handoff := queue.New[cdr.Batch]("handoff", core.MayInt("HANDOFF_CAPACITY", 64))
	col := collector.New(enrich.New(lookup), sinks, collector.Config{
		StoreTimeout: core.MayDuration("COLLECTOR_STORE_TIMEOUT", time.Minute),
	})
	if err := col.Attach(handoff); err != nil {
		l.Panic().Err(err).Msg("collector attach failed")
	}

	// Run outlives ctx so Close can drain what intake already accepted
	drained := make(chan error, 1)
	go func() { drained <- handoff.Run(context.Background()) }()

	srv := phttp.NewServer(core)
	api.Mount(srv.Router(), api.Options{
		Config:  core,
		Deps:    modkit.FromStore(*l, core, st),
		Handoff: handoff,
		Service: "cdrflow-api",
	})

	l.Info().Str("addr", srv.Addr()).Msg("cdrflow api listening")
	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
	}

	handoff.Close()
	select {
	case err := <-drained:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error().Err(err).Msg("handoff drain failed")
		}
	case <-time.After(core.MayDuration("HANDOFF_DRAIN_TIMEOUT", 30*time.Second)):
		l.Warn().Interface("stats", handoff.Stats()).Msg("handoff drain timed out")
	}
	l.Info().Interface("stats", handoff.Stats()).Msg("cdrflow api stopped")
}

// redisOf keeps a disabled cache a true nil interface
func redisOf(st *store.Store) redis.Cmdable {
	if st.RDS == nil {
		return nil
	}
	return st.RDS
}
