package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/citybeat-app/server/internal/uploads"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ uploads.Repository = (*UploadRepository)(nil)

type UploadRepository struct {
	pool *pgxpool.Pool
}

func (r *UploadRepository) Add(ctx context.Context, path, uploaderULID string) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO uploads (path, uploader_ulid)
VALUES ($1, $2)
ON CONFLICT (path) DO NOTHING
`, path, uploaderULID)
	if err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

func (r *UploadRepository) Remove(ctx context.Context, path string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM uploads WHERE path = $1`, path); err != nil {
		return fmt.Errorf("remove upload record: %w", err)
	}
	return nil
}

// ListOrphans returns upload paths older than cutoff that nothing in the
// catalog, moderation queue, or account profiles references anymore.
func (r *UploadRepository) ListOrphans(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
SELECT u.path
  FROM uploads u
 WHERE u.created_at < $1
   AND NOT EXISTS (SELECT 1 FROM venues v WHERE u.path = ANY(v.image_paths))
   AND NOT EXISTS (SELECT 1 FROM events e WHERE u.path = ANY(e.image_paths))
   AND NOT EXISTS (SELECT 1 FROM submissions s WHERE u.path = ANY(s.image_paths))
   AND NOT EXISTS (SELECT 1 FROM accounts a WHERE a.avatar_path = u.path)
`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list orphan uploads: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan orphan upload: %w", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orphan uploads: %w", err)
	}
	return paths, nil
}
