package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/webroot"
)

func Migrate(ctx context.Context, pool *pgxpool.Pool, tables webroot.Tables) error {
	if err := createAccessLogTable(ctx, pool, tables.AccessLog); err != nil {
		return fmt.Errorf("migrate up %s: %w", tables.AccessLog, err)
	}
	return nil
}

func DropTables(ctx context.Context, pool *pgxpool.Pool, tables webroot.Tables) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tables.AccessLog}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("migrate down %s: %w", tables.AccessLog, err)
	}
	return nil
}

func createAccessLogTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexCreated := pgx.Identifier{fmt.Sprintf("idx_%s_created", tableName)}.Sanitize()
	indexResource := pgx.Identifier{fmt.Sprintf("idx_%s_resource", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL,
			remote_addr TEXT NOT NULL,
			resource TEXT NOT NULL,
			status INTEGER NOT NULL,
			bytes_sent BIGINT NOT NULL,
			duration_ns BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at DESC, id DESC);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (resource text_pattern_ops);
	`,
		quotedTable,
		indexCreated, quotedTable,
		indexResource, quotedTable,
	)

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create access log table: %w", err)
	}
	return nil
}
