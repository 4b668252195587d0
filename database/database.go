package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/webroot"
	"github.com/sagarc03/webroot/database/postgres"
	"github.com/sagarc03/webroot/database/sqlite"
)

// Config holds the configuration for connecting to an access-log backend.
type Config struct {
	Type   string         `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	DSN    string         `mapstructure:"dsn" validate:"required"`
	Tables webroot.Tables `mapstructure:"tables"`
}

// Database is an open access-log backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetRepo() webroot.AccessRepo
	Close() error
}

// Connect opens the configured backend. It does not migrate; call Migrate
// and then Validate before using the repo.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	var (
		db  Database
		err error
	)
	switch cfg.Type {
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Open connects, pings, migrates and validates in one step. The caller
// owns the returned Database and must Close it.
func Open(ctx context.Context, cfg Config) (Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"ping", db.Ping},
		{"migrate", db.Migrate},
		{"validate", db.Validate},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("open %s: %s: %w", cfg.Type, step.name, err)
		}
	}

	return db, nil
}
