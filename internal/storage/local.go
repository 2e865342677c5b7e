package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ignite/engagement-analytics/internal/domain"
)

const indexFile = "index.json"

// LocalArchive stores snapshots under root/<tenant>/ with a JSON index per
// tenant. It is safe for concurrent use within one process.
type LocalArchive struct {
	root string
	mu   sync.Mutex
}

// NewLocalArchive creates the root directory if needed.
func NewLocalArchive(root string) (*LocalArchive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &LocalArchive{root: root}, nil
}

func (a *LocalArchive) tenantDir(tenantID string) (string, error) {
	if tenantID == "" || strings.ContainsAny(tenantID, `/\`) || tenantID == "." || tenantID == ".." {
		return "", fmt.Errorf("invalid tenant id %q", tenantID)
	}
	return filepath.Join(a.root, tenantID), nil
}

func (a *LocalArchive) Save(ctx context.Context, meta domain.SnapshotMeta, body []byte) (domain.SnapshotMeta, error) {
	if err := ctx.Err(); err != nil {
		return meta, err
	}
	dir, err := a.tenantDir(meta.TenantID)
	if err != nil {
		return meta, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return meta, fmt.Errorf("creating tenant directory: %w", err)
	}
	path := filepath.Join(dir, snapshotName(meta))
	if err := os.WriteFile(path, body, 0644); err != nil {
		return meta, fmt.Errorf("writing snapshot: %w", err)
	}
	meta.Location = path
	meta.Size = int64(len(body))

	index, err := readIndex(dir)
	if err != nil {
		return meta, err
	}
	index = append(index, meta)
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return meta, fmt.Errorf("encoding snapshot index: %w", err)
	}
	tmp := filepath.Join(dir, indexFile+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return meta, fmt.Errorf("writing snapshot index: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, indexFile)); err != nil {
		return meta, fmt.Errorf("replacing snapshot index: %w", err)
	}
	return meta, nil
}

func (a *LocalArchive) List(ctx context.Context, tenantID string, limit int) ([]domain.SnapshotMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := a.tenantDir(tenantID)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	index, err := readIndex(dir)
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(index, func(i, j int) bool {
		return index[i].GeneratedAt.After(index[j].GeneratedAt)
	})
	if limit > 0 && len(index) > limit {
		index = index[:limit]
	}
	return index, nil
}

func readIndex(dir string) ([]domain.SnapshotMeta, error) {
	data, err := os.ReadFile(filepath.Join(dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return []domain.SnapshotMeta{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot index: %w", err)
	}
	var index []domain.SnapshotMeta
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("decoding snapshot index: %w", err)
	}
	return index, nil
}
