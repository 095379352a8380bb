package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/verdant-group/impact-cli/internal/config"
	"github.com/verdant-group/impact-cli/internal/refdata"
	"github.com/verdant-group/impact-cli/internal/resolver"
	"github.com/verdant-group/impact-cli/internal/store"
)

// engine bundles the collaborators every computation needs.
type engine struct {
	Refdata  *refdata.Store
	Resolver *resolver.Resolver
	Defaults config.ComputationDefaults
}

func initEngine() *engine {
	defaults := config.NewComputationDefaults(cfg.Defaults)
	ref := refdata.NewStore(cfg.Data.Dir, cfg.Archetypes.Default)
	return &engine{
		Refdata:  ref,
		Resolver: resolver.New(ref, defaults),
		Defaults: defaults,
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "impact.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
