// Package blobtest holds the behaviour every blob.Store must share.
package blobtest

import (
	"context"
	"errors"
	"testing"

	"masarif/internal/blob"
)

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) blob.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent key", func(t *testing.T) {
		s := newStore(t)
		v, ok, err := s.Get(ctx, "studentExpenses")
		if err != nil || ok || v != nil {
			t.Fatalf("expected absent, got %q ok=%v err=%v", v, ok, err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "studentExpenses", []byte(`[{"id":1}]`)); err != nil {
			t.Fatalf("set: %v", err)
		}
		v, ok, err := s.Get(ctx, "studentExpenses")
		if err != nil || !ok || string(v) != `[{"id":1}]` {
			t.Fatalf("unexpected get: %q ok=%v err=%v", v, ok, err)
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, "k", []byte("first"))
		if err := s.Set(ctx, "k", []byte("second")); err != nil {
			t.Fatalf("set: %v", err)
		}
		v, _, _ := s.Get(ctx, "k")
		if string(v) != "second" {
			t.Fatalf("expected overwrite, got %q", v)
		}
	})

	t.Run("empty value is present", func(t *testing.T) {
		s := newStore(t)
		if err := s.Set(ctx, "k", []byte{}); err != nil {
			t.Fatalf("set: %v", err)
		}
		_, ok, err := s.Get(ctx, "k")
		if err != nil || !ok {
			t.Fatalf("expected present empty value, ok=%v err=%v", ok, err)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, "a", []byte("A"))
		_ = s.Set(ctx, "b", []byte("B"))
		v, _, _ := s.Get(ctx, "a")
		if string(v) != "A" {
			t.Fatalf("expected A, got %q", v)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		_ = s.Set(ctx, "k", []byte("v"))
		if err := s.Delete(ctx, "k"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, ok, _ := s.Get(ctx, "k"); ok {
			t.Fatalf("expected key gone")
		}
		if err := s.Delete(ctx, "k"); err != nil {
			t.Fatalf("deleting absent key: %v", err)
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		s := newStore(t)
		for _, key := range []string{"", "  ", "../escape", `a\b`} {
			if err := s.Set(ctx, key, []byte("x")); !errors.Is(err, blob.ErrInvalidKey) {
				t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
			}
		}
	})
}
