package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sagarc03/webroot"
	"github.com/sagarc03/webroot/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestSetupLogging_File(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "server.log")

	closeFn, err := setupLogging("prod", config.LogConfig{Level: "info", File: path})
	require.NoError(t, err)

	slog.Info("hello", "k", "v")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"ts":`)

	// reopening appends
	closeFn, err = setupLogging("prod", config.LogConfig{Level: "info", File: path})
	require.NoError(t, err)
	slog.Info("again")
	require.NoError(t, closeFn())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"msg":"again"`)
}

func TestSetupLogging_BadFile(t *testing.T) {
	_, err := setupLogging("", config.LogConfig{Level: "info", File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, validatePort("8080"))
	assert.NoError(t, validatePort("0"))
	assert.Error(t, validatePort("abc"))
	assert.Error(t, validatePort("70000"))
	assert.Error(t, validatePort("-1"))
}

func TestStarterConfig_LoadsBack(t *testing.T) {
	out := starterConfig{
		Server: starterServer{Address: "127.0.0.1", Port: 9090, Backlog: 4},
		Site: starterSite{
			WebRoot:         "./public",
			DefaultDocument: "index.html",
			ForbiddenPath:   "/forbidden",
			Redirects:       []config.Redirect{{From: "/old", To: "/new.html"}},
		},
		AccessLog: starterAccessLog{
			Enabled: true,
			Type:    "sqlite",
			DSN:     "access.db",
			Tables:  webroot.Tables{AccessLog: "site_access"},
		},
		Log: starterLog{Level: "debug"},
	}

	data, err := yaml.Marshal(out)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Server.Backlog)
	assert.Equal(t, "./public", cfg.Site.WebRoot)
	assert.Equal(t, []config.Redirect{{From: "/old", To: "/new.html"}}, cfg.Site.Redirects)
	assert.True(t, cfg.AccessLog.Enabled)
	assert.Equal(t, "access.db", cfg.AccessLog.DSN)
	assert.Equal(t, "site_access", cfg.AccessLog.Tables.AccessLog)
	assert.Equal(t, "debug", cfg.Log.Level)
}

type pagedRepo struct {
	webroot.AccessRepo
	pages   map[string]webroot.AccessListResult
	queries []webroot.AccessQuery
	err     error
}

func (r *pagedRepo) List(_ context.Context, q webroot.AccessQuery) (webroot.AccessListResult, error) {
	r.queries = append(r.queries, q)
	if r.err != nil {
		return webroot.AccessListResult{}, r.err
	}
	return r.pages[q.Cursor], nil
}

func TestListAccess(t *testing.T) {
	repo := &pagedRepo{pages: map[string]webroot.AccessListResult{
		"":   {Items: []webroot.Exchange{{Resource: "/a"}, {Resource: "/b"}}, NextCursor: "p2"},
		"p2": {Items: []webroot.Exchange{{Resource: "/c"}}},
	}}

	t.Run("single page", func(t *testing.T) {
		repo.queries = nil
		got, err := listAccess(context.Background(), repo, webroot.AccessQuery{Limit: 2}, false)
		require.NoError(t, err)
		assert.Len(t, got.Items, 2)
		assert.Equal(t, "p2", got.NextCursor)
		assert.Len(t, repo.queries, 1)
	})

	t.Run("all pages", func(t *testing.T) {
		repo.queries = nil
		got, err := listAccess(context.Background(), repo, webroot.AccessQuery{Limit: 2, ResourcePrefix: "/"}, true)
		require.NoError(t, err)
		require.Len(t, got.Items, 3)
		assert.Equal(t, "/c", got.Items[2].Resource)
		assert.Empty(t, got.NextCursor)
		require.Len(t, repo.queries, 2)
		assert.Equal(t, "/", repo.queries[1].ResourcePrefix, "filters carry across pages")
	})

	t.Run("error", func(t *testing.T) {
		failing := &pagedRepo{err: errors.New("boom")}
		_, err := listAccess(context.Background(), failing, webroot.AccessQuery{}, true)
		assert.ErrorContains(t, err, "boom")
	})
}

func TestOpenAccessLog_RequiresConfig(t *testing.T) {
	_, _, err := openAccessLog(context.Background())
	assert.Error(t, err)
}
