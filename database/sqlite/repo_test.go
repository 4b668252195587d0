package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/webroot"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRepo_RecordAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := setupTestRepo(t)

	want := newExchange("/index.html", webroot.StatusOK, base.Add(123456789*time.Nanosecond))
	require.NoError(t, repo.Record(ctx, want))

	result, err := repo.List(ctx, webroot.AccessQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Empty(t, result.NextCursor)

	got := result.Items[0]
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.SessionID, got.SessionID)
	assert.Equal(t, want.RemoteAddr, got.RemoteAddr)
	assert.Equal(t, want.Resource, got.Resource)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.BytesSent, got.BytesSent)
	assert.Equal(t, want.Duration, got.Duration)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestRepo_Record_FillsIDAndTime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := setupTestRepo(t)

	require.NoError(t, repo.Record(ctx, webroot.Exchange{Resource: "/", Status: webroot.StatusOK}))

	result, err := repo.List(ctx, webroot.AccessQuery{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.NotEqual(t, uuid.Nil, result.Items[0].ID)
	assert.WithinDuration(t, time.Now(), result.Items[0].CreatedAt, time.Minute)
}

func TestRepo_List_NewestFirstWithPagination(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := setupTestRepo(t)

	for i := range 5 {
		require.NoError(t, repo.Record(ctx, newExchange("/p", webroot.StatusOK, base.Add(time.Duration(i)*time.Second))))
	}

	var seen []time.Time
	cursor := ""
	pages := 0
	for {
		result, err := repo.List(ctx, webroot.AccessQuery{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		pages++
		for _, e := range result.Items {
			seen = append(seen, e.CreatedAt)
		}
		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	assert.Equal(t, 3, pages)
	require.Len(t, seen, 5)
	for i := 1; i < len(seen); i++ {
		assert.True(t, seen[i-1].After(seen[i]), "items must be newest first")
	}
}

func TestRepo_List_SameTimestampUsesIDTiebreak(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := setupTestRepo(t)

	ids := map[uuid.UUID]bool{}
	for range 4 {
		e := newExchange("/same", webroot.StatusOK, base)
		ids[e.ID] = true
		require.NoError(t, repo.Record(ctx, e))
	}

	first, err := repo.List(ctx, webroot.AccessQuery{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.List(ctx, webroot.AccessQuery{Limit: 3, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)

	for _, e := range append(first.Items, second.Items...) {
		assert.True(t, ids[e.ID])
		delete(ids, e.ID)
	}
	assert.Empty(t, ids, "every exchange must appear exactly once")
}

func TestRepo_List_Filters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := setupTestRepo(t)

	records := []webroot.Exchange{
		newExchange("/images/a.png", webroot.StatusOK, base),
		newExchange("/images/b.png", webroot.StatusBadRequest, base.Add(time.Second)),
		newExchange("/images_old/c.png", webroot.StatusOK, base.Add(2*time.Second)),
		newExchange("/forbidden", webroot.StatusForbidden, base.Add(3*time.Second)),
	}
	for _, e := range records {
		require.NoError(t, repo.Record(ctx, e))
	}

	tests := []struct {
		name  string
		query webroot.AccessQuery
		want  []string
	}{
		{"no filter", webroot.AccessQuery{}, []string{"/forbidden", "/images_old/c.png", "/images/b.png", "/images/a.png"}},
		{"prefix", webroot.AccessQuery{ResourcePrefix: "/images/"}, []string{"/images/b.png", "/images/a.png"}},
		{"prefix underscore is literal", webroot.AccessQuery{ResourcePrefix: "/images_"}, []string{"/images_old/c.png"}},
		{"status", webroot.AccessQuery{Status: webroot.StatusOK}, []string{"/images_old/c.png", "/images/a.png"}},
		{"prefix and status", webroot.AccessQuery{ResourcePrefix: "/images/", Status: webroot.StatusBadRequest}, []string{"/images/b.png"}},
		{"no match", webroot.AccessQuery{ResourcePrefix: "/nope"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.List(ctx, tt.query)
			require.NoError(t, err)

			var got []string
			for _, e := range result.Items {
				got = append(got, e.Resource)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepo_List_InvalidCursor(t *testing.T) {
	t.Parallel()
	repo := setupTestRepo(t)

	_, err := repo.List(context.Background(), webroot.AccessQuery{Cursor: "!!!"})
	assert.ErrorIs(t, err, webroot.ErrInvalidInput)
}

func TestRepo_Prune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := setupTestRepo(t)

	for i := range 4 {
		require.NoError(t, repo.Record(ctx, newExchange("/x", webroot.StatusOK, base.Add(time.Duration(i)*time.Hour))))
	}

	n, err := repo.Prune(ctx, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	result, err := repo.List(ctx, webroot.AccessQuery{})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	for _, e := range result.Items {
		assert.False(t, e.CreatedAt.Before(base.Add(2*time.Hour)))
	}

	n, err = repo.Prune(ctx, base)
	require.NoError(t, err)
	assert.Zero(t, n)
}
