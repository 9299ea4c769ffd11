package main

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/pgjson/internal/config"
	"github.com/alfredjeanlab/pgjson/internal/schema"
	"github.com/alfredjeanlab/pgjson/internal/store"
	"github.com/alfredjeanlab/pgjson/internal/store/postgres"
)

// loadFields builds the documents table columns from cfg, reading the
// frozen schema file when one is configured.
func loadFields(cfg *config.Config) (store.Fields, error) {
	c, err := cfg.Codec()
	if err != nil {
		return store.Fields{}, err
	}
	if cfg.SchemaFile == "" {
		return store.NewFields(c, cfg.StrictDecode), nil
	}
	models, err := schema.ReadFile(cfg.SchemaFile)
	if err != nil {
		return store.Fields{}, fmt.Errorf("reading schema file: %w", err)
	}
	fields, err := store.FieldsFromModels(models, c, cfg.StrictDecode)
	if err != nil {
		return store.Fields{}, fmt.Errorf("schema file %s: %w", cfg.SchemaFile, err)
	}
	return fields, nil
}

// openStore loads the configuration and connects to the database.
func openStore(ctx context.Context) (*config.Config, *postgres.PostgresStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	fields, err := loadFields(cfg)
	if err != nil {
		return nil, nil, err
	}
	s, err := postgres.Open(ctx, cfg.Driver, cfg.DatabaseURL, fields)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}
