package store

import (
	"time"

	"cdrflow/internal/platform/config"
)

// Config aggregates per-backend configuration
type Config struct {
	AppName string

	PG  PGConfig
	CH  CHConfig
	RDS RedisConfig
}

// PGConfig configures Postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures ClickHouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string
	Role    string // reported in client info, e.g. "api"
}

// RedisConfig configures the Redis client
type RedisConfig struct {
	Enabled bool
	Addr    string
	DB      int
}

// FromEnv reads SERVICE_PGSQL_*, SERVICE_CLICKHOUSE_* and SERVICE_REDIS_*.
// Each backend is enabled by the presence of its URL or address.
func FromEnv(cfg config.Conf, role string) Config {
	pgc := cfg.Prefix("SERVICE_PGSQL_")
	chc := cfg.Prefix("SERVICE_CLICKHOUSE_")
	rdc := cfg.Prefix("SERVICE_REDIS_")

	out := Config{
		AppName: "cdrflow-" + role,
		PG: PGConfig{
			URL:            pgc.MayString("DBURL", ""),
			MaxConns:       int32(pgc.MayInt("MAX_CONNS", 4)),
			LogSQL:         pgc.MayBool("LOG_SQL", false),
			SlowQueryMs:    pgc.MayInt("SLOW_MS", 500),
			ConnectRetries: pgc.MayInt("CONNECT_RETRIES", 20),
			PingTimeout:    pgc.MayDuration("PING_TIMEOUT", 3*time.Second),
		},
		CH: CHConfig{
			URL:  chc.MayString("DBURL", ""),
			Role: role,
		},
		RDS: RedisConfig{
			Addr: rdc.MayString("ADDR", ""),
			DB:   rdc.MayInt("DB", 0),
		},
	}
	out.PG.Enabled = out.PG.URL != ""
	out.CH.Enabled = out.CH.URL != ""
	out.RDS.Enabled = out.RDS.Addr != ""
	return out
}
