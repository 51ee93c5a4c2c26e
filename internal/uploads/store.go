package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/citybeat-app/server/internal/domain/ids"
)

var (
	ErrTooLarge       = errors.New("upload exceeds size limit")
	ErrUnsupportedExt = errors.New("unsupported file extension")
)

// allowedExtensions is the image allow-list for catalog and submission uploads.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// Record tracks one stored file for the orphan sweep.
type Record struct {
	Path       string
	UploaderID string
	CreatedAt  time.Time
}

type Repository interface {
	Add(ctx context.Context, path, uploaderULID string) error
	Remove(ctx context.Context, path string) error

	// ListOrphans returns paths older than cutoff that no venue, event,
	// submission, or account references.
	ListOrphans(ctx context.Context, cutoff time.Time) ([]string, error)
}

// Store writes uploads to a single flat directory with ULID filenames and
// serves them back by path.
type Store struct {
	dir      string
	maxBytes int64
	repo     Repository
}

func NewStore(dir string, maxBytes int64, repo Repository) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes, repo: repo}, nil
}

// Dir returns the on-disk directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// Save persists one upload and records it for the orphan sweep. The returned
// path is the public URL path under /uploads/.
func (s *Store) Save(ctx context.Context, originalName, uploaderULID string, body io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedExt
	}

	name := ids.MustNewULID() + ext
	fullPath := filepath.Join(s.dir, name)

	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	written, err := io.Copy(file, io.LimitReader(body, s.maxBytes+1))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if written > s.maxBytes {
		_ = os.Remove(fullPath)
		return "", ErrTooLarge
	}

	publicPath := "/uploads/" + name
	if s.repo != nil {
		if err := s.repo.Add(ctx, publicPath, uploaderULID); err != nil {
			_ = os.Remove(fullPath)
			return "", err
		}
	}
	return publicPath, nil
}

// SweepOrphans removes files older than maxAge that nothing references.
// Returns how many files were deleted.
func (s *Store) SweepOrphans(ctx context.Context, maxAge time.Duration) (int, error) {
	if s.repo == nil {
		return 0, nil
	}
	orphans, err := s.repo.ListOrphans(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, publicPath := range orphans {
		name := strings.TrimPrefix(publicPath, "/uploads/")
		// Refuse anything that would escape the upload dir.
		if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			continue
		}
		if err := s.repo.Remove(ctx, publicPath); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
