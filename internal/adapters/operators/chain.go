package operators

import (
	"time"

	"cdrflow/internal/platform/config"
	perr "cdrflow/internal/platform/errors"

	"github.com/redis/go-redis/v9"
)

// Lookup modes
const (
	ModeHTTP      = "http"
	ModeDirectory = "directory"
)

// Config selects and tunes the lookup chain
type Config struct {
	Mode        string
	URL         string
	Timeout     time.Duration
	Directory   string
	MaxInFlight int
	CacheTTL    time.Duration
}

// ConfigFrom reads OPERATORS_* under cfg
func ConfigFrom(cfg config.Conf) Config {
	c := cfg.Prefix("OPERATORS_")
	return Config{
		Mode:        c.MayEnum("MODE", ModeHTTP, ModeHTTP, ModeDirectory),
		URL:         c.MayString("URL", ""),
		Timeout:     c.MayDuration("TIMEOUT", 5*time.Second),
		Directory:   c.MayString("DIRECTORY", "operators.yaml"),
		MaxInFlight: c.MayInt("MAX_INFLIGHT", 32),
		CacheTTL:    c.MayDuration("CACHE_TTL", 24*time.Hour),
	}
}

// NewChain builds the lookup used by enrichment: the limiter bounds calls to
// the source only, and the Redis cache in front of it is skipped when rdb is nil
func NewChain(c Config, rdb redis.Cmdable) (Lookup, error) {
	var src Lookup
	switch c.Mode {
	case ModeDirectory:
		d, err := LoadDirectory(c.Directory)
		if err != nil {
			return nil, err
		}
		src = d
	case ModeHTTP, "":
		cl, err := NewClient(Options{BaseURL: c.URL, Timeout: c.Timeout})
		if err != nil {
			return nil, err
		}
		src = cl
	default:
		return nil, perr.InvalidArgf("unknown operators mode %q", c.Mode)
	}
	return NewCached(NewLimited(src, c.MaxInFlight), rdb, c.CacheTTL), nil
}
