package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/curate-cli/internal/policy"
	"github.com/sells-group/curate-cli/internal/profile"
	"github.com/sells-group/curate-cli/internal/scoring"
	"github.com/sells-group/curate-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initPolicy() (*policy.Store, error) {
	return policy.Open(cfg.Policy.BlockedAddressesPath, cfg.Policy.BlockedDomainsPath)
}

func initEngine(profilePath string) (*scoring.Engine, error) {
	if profilePath == "" {
		profilePath = cfg.Profile.Path
	}
	if profilePath == "" {
		return nil, eris.New("no market profile configured (set profile.path or pass --profile)")
	}
	p, err := profile.Load(profilePath)
	if err != nil {
		return nil, err
	}
	return scoring.NewEngine(p), nil
}
