package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/webroot"
	"github.com/sagarc03/webroot/database/internal"
)

// timeLayout is fixed width so that text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Record(ctx context.Context, e webroot.Exchange) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, session_id, remote_addr, resource, status, bytes_sent, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, r.tableName)

	_, err := r.db.ExecContext(ctx, query,
		e.ID.String(), e.SessionID.String(), e.RemoteAddr, e.Resource,
		int(e.Status), e.BytesSent, int64(e.Duration), formatTime(e.CreatedAt),
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

	conditions := []string{`resource LIKE ? || '%' ESCAPE '\'`}
	args := []any{internal.EscapeLikePattern(q.ResourcePrefix)}

	if q.Status != 0 {
		conditions = append(conditions, "status = ?")
		args = append(args, int(q.Status))
	}

	if !cursor.IsZero() {
		conditions = append(conditions, "(created_at, id) < (?, ?)")
		args = append(args, formatTime(cursor.CreatedAt), cursor.ID)
	}

	args = append(args, limit+1)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, session_id, remote_addr, resource, status, bytes_sent, duration_ns, created_at
		FROM %s
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, r.tableName, strings.Join(conditions, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return webroot.AccessListResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]webroot.Exchange, 0, limit)
	for rows.Next() {
		e, scanErr := scanExchange(rows)
		if scanErr != nil {
			return webroot.AccessListResult{}, fmt.Errorf("list: %w", scanErr)
		}
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

func scanExchange(rows *sql.Rows) (webroot.Exchange, error) {
	var e webroot.Exchange
	var id, sessionID, createdAt string
	var status int
	var duration int64

	if err := rows.Scan(&id, &sessionID, &e.RemoteAddr, &e.Resource, &status, &e.BytesSent, &duration, &createdAt); err != nil {
		return webroot.Exchange{}, fmt.Errorf("scan: %w", err)
	}

	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return webroot.Exchange{}, fmt.Errorf("parse id: %w", err)
	}
	if e.SessionID, err = uuid.Parse(sessionID); err != nil {
		return webroot.Exchange{}, fmt.Errorf("parse session_id: %w", err)
	}
	if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return webroot.Exchange{}, fmt.Errorf("parse created_at: %w", err)
	}

	e.Status = webroot.StatusCode(status)
	e.Duration = time.Duration(duration)
	return e, nil
}

func (r *repo) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE created_at < ?`, r.tableName) //nolint:gosec // table name is validated

	result, err := r.db.ExecContext(ctx, query, formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune: rows affected: %w", err)
	}

	return n, nil
}
