package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"masarif/internal/blob"
	"masarif/internal/blob/blobtest"
)

func TestStore(t *testing.T) {
	blobtest.Run(t, func(t *testing.T) blob.Store {
		s, err := NewStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewStore: %v", err)
		}
		return s
	})
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Set(context.Background(), "studentExpenses", []byte("[]")); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, ok, err := reopened.Get(context.Background(), "studentExpenses")
	if err != nil || !ok || string(v) != "[]" {
		t.Fatalf("unexpected value after reopen: %q ok=%v err=%v", v, ok, err)
	}

	if _, err := os.Stat(filepath.Join(dir, "studentExpenses.json")); err != nil {
		t.Fatalf("expected blob file on disk: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	s, _ := NewStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Set(ctx, "k", []byte("v")); err == nil {
		t.Fatalf("expected context error")
	}
}
