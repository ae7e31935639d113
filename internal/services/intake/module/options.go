package module

import (
	"cdrflow/internal/platform/config"
)

// Options controls batch intake
type Options struct {
	MaxBytes int64
}

// FromConfig reads with the INTAKE_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("INTAKE_")
	return Options{
		MaxBytes: c.MayInt64("MAX_BYTES", 16<<20),
	}
}
