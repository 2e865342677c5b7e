package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/engagement-analytics/internal/config"
	"github.com/ignite/engagement-analytics/internal/domain"
)

func meta(id, tenant string, at time.Time) domain.SnapshotMeta {
	return domain.SnapshotMeta{ID: id, TenantID: tenant, CohortType: "monthly", Days: 90, GeneratedAt: at}
}

func TestLocalArchive_SaveAndList(t *testing.T) {
	ctx := context.Background()
	a, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		saved, err := a.Save(ctx, meta(id, "t1", base.Add(time.Duration(i)*time.Hour)), []byte(`{"ok":true}`))
		require.NoError(t, err)
		assert.Equal(t, int64(11), saved.Size)
		body, err := os.ReadFile(saved.Location)
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(body))
	}

	list, err := a.List(ctx, "t1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})

	list, err = a.List(ctx, "t1", 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
}

func TestLocalArchive_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	a, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	_, err = a.Save(ctx, meta("a", "t1", time.Now()), []byte("{}"))
	require.NoError(t, err)

	list, err := a.List(ctx, "t2", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestLocalArchive_RejectsPathTenant(t *testing.T) {
	ctx := context.Background()
	a, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	for _, tenant := range []string{"", "..", "a/b", `a\b`} {
		_, err := a.Save(ctx, meta("x", tenant, time.Now()), []byte("{}"))
		assert.Error(t, err, tenant)
	}
}

func TestLocalArchive_CorruptIndex(t *testing.T) {
	root := t.TempDir()
	a, err := NewLocalArchive(root)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "t1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "t1", indexFile), []byte("not json"), 0644))

	_, err = a.List(context.Background(), "t1", 5)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	a, err := New(ctx, config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalArchive{}, a)

	a, err = New(ctx, config.StorageConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, a)

	_, err = New(ctx, config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)

	_, err = New(ctx, config.StorageConfig{Type: "aws"})
	assert.Error(t, err)
}
