package main

import (
	"context"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/directory-cli/internal/config"
	"github.com/sells-group/directory-cli/internal/enrich"
	"github.com/sells-group/directory-cli/internal/ingest"
	"github.com/sells-group/directory-cli/internal/model"
	"github.com/sells-group/directory-cli/internal/store"
	"github.com/sells-group/directory-cli/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	return initStoreFromConfig(ctx, cfg.Store)
}

func initStoreFromConfig(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "sqlite":
		dsn := sc.DatabaseURL
		if dsn == "" {
			dsn = "directory.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, sc.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", sc.Driver)
	}
}

// initEnricher builds the suggestion client. Without an API key, or
// when offline is set, suggestions come from the local stub.
func initEnricher(offline bool) enrich.Client {
	if offline || cfg.Anthropic.Key == "" {
		if !offline {
			zap.L().Info("no anthropic key configured, using stub suggestions")
		}
		return &enrich.StubClient{}
	}
	return enrich.New(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic)
}

// currentActor resolves the name recorded on audit entries: the
// --actor flag when set, otherwise the OS user.
func currentActor() string {
	if actorFlag != "" {
		return actorFlag
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

// toPointers adapts a listed record slice for the reconciler.
func toPointers(records []model.Provider) []*model.Provider {
	out := make([]*model.Provider, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out
}

// loadRecords reads a directory file, dispatching on extension.
func loadRecords(ctx context.Context, path string, source model.Source) ([]*model.Provider, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ingest.ReadCSVFile(ctx, path, source)
	case ".xlsx":
		return ingest.ReadXLSXFile(path, source)
	default:
		return nil, eris.Errorf("unsupported file type: %s (expected .csv or .xlsx)", path)
	}
}
