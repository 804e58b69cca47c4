package config

import "fmt"

// validate checks that the final merged [StructuredConfig] satisfies the
// startup invariants. Defaults have already been merged, so anything still
// missing here was impossible to guess.
func (cfg *StructuredConfig) validate() error {
	switch cfg.Storage.Driver {
	case "memory":
	case "postgres", "sqlite":
		if cfg.Storage.DB.DSN == "" {
			return fmt.Errorf("%w: driver %q requires a DSN", ErrInvalidStorageConfigs, cfg.Storage.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidStorageConfigs, cfg.Storage.Driver)
	}

	if cfg.App.TokenDuration <= 0 {
		return fmt.Errorf("%w: token duration must be positive", ErrInvalidAppConfigs)
	}

	if cfg.Server.HTTPAddress == "" {
		return fmt.Errorf("%w: empty listen address", ErrInvalidServerConfigs)
	}

	return nil
}
