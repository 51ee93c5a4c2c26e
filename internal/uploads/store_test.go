package uploads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeRepo struct {
	added   []string
	removed []string
	orphans []string
}

func (r *fakeRepo) Add(_ context.Context, path, _ string) error {
	r.added = append(r.added, path)
	return nil
}

func (r *fakeRepo) Remove(_ context.Context, path string) error {
	r.removed = append(r.removed, path)
	return nil
}

func (r *fakeRepo) ListOrphans(_ context.Context, _ time.Time) ([]string, error) {
	return r.orphans, nil
}

func newTestStore(t *testing.T, maxBytes int64) (*Store, *fakeRepo) {
	t.Helper()
	repo := &fakeRepo{}
	store, err := NewStore(t.TempDir(), maxBytes, repo)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, repo
}

func TestSave(t *testing.T) {
	store, repo := newTestStore(t, 1024)

	path, err := store.Save(context.Background(), "photo.JPG", "01UPLOADER0000000000000000", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(path, "/uploads/") || !strings.HasSuffix(path, ".jpg") {
		t.Errorf("path = %q", path)
	}

	onDisk := filepath.Join(store.Dir(), strings.TrimPrefix(path, "/uploads/"))
	data, err := os.ReadFile(onDisk)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("stored bytes = %q", data)
	}
	if len(repo.added) != 1 || repo.added[0] != path {
		t.Errorf("repo.added = %v", repo.added)
	}
}

func TestSaveRejectsUnsupportedExtension(t *testing.T) {
	store, _ := newTestStore(t, 1024)

	for _, name := range []string{"malware.exe", "doc.pdf", "noext"} {
		if _, err := store.Save(context.Background(), name, "01UPLOADER0000000000000000", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedExt) {
			t.Errorf("Save(%q) error = %v, want ErrUnsupportedExt", name, err)
		}
	}
}

func TestSaveRejectsOversizedBody(t *testing.T) {
	store, repo := newTestStore(t, 10)

	_, err := store.Save(context.Background(), "big.png", "01UPLOADER0000000000000000", strings.NewReader(strings.Repeat("x", 11)))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("error = %v, want ErrTooLarge", err)
	}
	if len(repo.added) != 0 {
		t.Error("oversized upload must not be recorded")
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Error("oversized upload must not be left on disk")
	}
}

func TestSweepOrphans(t *testing.T) {
	store, repo := newTestStore(t, 1024)
	ctx := context.Background()

	keep, err := store.Save(ctx, "keep.png", "01UPLOADER0000000000000000", strings.NewReader("keep"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	orphan, err := store.Save(ctx, "orphan.png", "01UPLOADER0000000000000000", strings.NewReader("orphan"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	repo.orphans = []string{orphan}

	removed, err := store.SweepOrphans(ctx, time.Hour)
	if err != nil {
		t.Fatalf("SweepOrphans: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d", removed)
	}
	if len(repo.removed) != 1 || repo.removed[0] != orphan {
		t.Errorf("repo.removed = %v", repo.removed)
	}

	if _, err := os.Stat(filepath.Join(store.Dir(), strings.TrimPrefix(orphan, "/uploads/"))); !os.IsNotExist(err) {
		t.Error("orphan file still on disk")
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), strings.TrimPrefix(keep, "/uploads/"))); err != nil {
		t.Errorf("kept file missing: %v", err)
	}
}

func TestSweepOrphansRefusesTraversal(t *testing.T) {
	store, repo := newTestStore(t, 1024)

	outside := filepath.Join(filepath.Dir(store.Dir()), "victim.txt")
	if err := os.WriteFile(outside, []byte("do not delete"), 0o644); err != nil {
		t.Fatalf("write victim file: %v", err)
	}
	repo.orphans = []string{"/uploads/../victim.txt", "/uploads/", "/uploads/a/b.png"}

	removed, err := store.SweepOrphans(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("SweepOrphans: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside the upload dir was touched: %v", err)
	}
}
