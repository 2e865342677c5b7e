// Package storage archives engagement report snapshots, either on the local
// filesystem or in AWS (S3 bodies indexed in DynamoDB).
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/engagement-analytics/internal/config"
	"github.com/ignite/engagement-analytics/internal/domain"
)

// Archive persists report snapshots and lists them newest first.
type Archive interface {
	Save(ctx context.Context, meta domain.SnapshotMeta, body []byte) (domain.SnapshotMeta, error)
	List(ctx context.Context, tenantID string, limit int) ([]domain.SnapshotMeta, error)
}

// New returns the archive selected by cfg.Type. Type "none" disables
// archiving and returns a nil Archive.
func New(ctx context.Context, cfg config.StorageConfig) (Archive, error) {
	switch cfg.Type {
	case "aws":
		a, err := NewAWSArchive(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing AWS archive: %w", err)
		}
		return a, nil
	case "local", "":
		return NewLocalArchive(cfg.LocalPath)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// snapshotName is the object name of a snapshot body. It sorts by time.
func snapshotName(meta domain.SnapshotMeta) string {
	return fmt.Sprintf("%s_%s.json", meta.GeneratedAt.UTC().Format("20060102T150405Z"), meta.ID)
}

// sortKey orders index entries newest first when scanned backwards.
func sortKey(meta domain.SnapshotMeta) string {
	return fmt.Sprintf("SNAPSHOT#%s#%s", meta.GeneratedAt.UTC().Format(time.RFC3339), meta.ID)
}
