package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/webroot"
	"github.com/sagarc03/webroot/database/internal"
)

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func (r *repo) Record(ctx context.Context, e webroot.Exchange) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, remote_addr, resource, status, bytes_sent, duration_ns, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tableName)

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.SessionID, e.RemoteAddr, e.Resource,
		int(e.Status), e.BytesSent, int64(e.Duration), e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return nil
}

func (r *repo) List(ctx context.Context, q webroot.AccessQuery) (webroot.AccessListResult, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return webroot.AccessListResult{}, fmt.Errorf("list: %w: %w", webroot.ErrInvalidInput, err)
	}

	limit := internal.ClampLimit(q.Limit)

	conditions := []string{`resource LIKE $1 || '%'`}
	args := []any{internal.EscapeLikePattern(q.ResourcePrefix)}

	if q.Status != 0 {
		args = append(args, int(q.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if !cursor.IsZero() {
		id, parseErr := uuid.Parse(cursor.ID)
		if parseErr != nil {
			return webroot.AccessListResult{}, fmt.Errorf("list: %w: cursor id: %w", webroot.ErrInvalidInput, parseErr)
		}
		args = append(args, cursor.CreatedAt, id)
		conditions = append(conditions, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	args = append(args, limit+1)

	query := fmt.Sprintf(`
		SELECT id, session_id, remote_addr, resource, status, bytes_sent, duration_ns, created_at
		FROM %s
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, r.tableName, strings.Join(conditions, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return webroot.AccessListResult{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]webroot.Exchange, 0, limit)
	for rows.Next() {
		var e webroot.Exchange
		var status int
		var duration int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.RemoteAddr, &e.Resource, &status, &e.BytesSent, &duration, &e.CreatedAt); err != nil {
			return webroot.AccessListResult{}, fmt.Errorf("list: scan: %w", err)
		}
		e.Status = webroot.StatusCode(status)
		e.Duration = time.Duration(duration)
		e.CreatedAt = e.CreatedAt.UTC()
		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		return webroot.AccessListResult{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		last := items[limit-1]
		nextCursor = internal.EncodeCursor(last.CreatedAt, last.ID.String())
		items = items[:limit]
	}

	return webroot.AccessListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *repo) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE created_at < $1`, r.tableName)

	result, err := r.pool.Exec(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}

	return result.RowsAffected(), nil
}
