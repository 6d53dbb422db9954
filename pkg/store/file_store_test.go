package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsync/pkg/store"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := store.NewFileStore[record](dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	want := record{ID: "f1", State: map[string]any{"a": "x", "n": float64(2)}}
	if _, err := s.Save(ctx, store.StateRef("f1"), want, store.Meta{SnapshotID: "snap-1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "state", "f1.json")); err != nil {
		t.Fatalf("expected document on disk: %v", err)
	}

	got, meta, ok, err := s.Load(ctx, store.StateRef("f1"))
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if meta.SnapshotID != "snap-1" {
		t.Fatalf("expected snapshot id preserved, got %q", meta.SnapshotID)
	}
}

func TestFileStoreMissingRecord(t *testing.T) {
	s, _ := store.NewFileStore[record](t.TempDir())
	_, _, ok, err := s.Load(context.Background(), store.ConfigRef("nope"))
	if err != nil || ok {
		t.Fatalf("expected absent record, ok=%v err=%v", ok, err)
	}
}

func TestFileStoreCreateKeepsFirstWrite(t *testing.T) {
	ctx := context.Background()
	s, _ := store.NewFileStore[int](t.TempDir())
	ref := store.GlobalRef("g")

	created, _, err := s.Create(ctx, ref, 1, store.Meta{})
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}
	created, _, err = s.Create(ctx, ref, 2, store.Meta{})
	if err != nil || created {
		t.Fatalf("second create: created=%v err=%v", created, err)
	}
	got, _, _, _ := s.Load(ctx, ref)
	if got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestFileStoreRejectsPathLikeIDs(t *testing.T) {
	s, _ := store.NewFileStore[int](t.TempDir())
	_, err := s.Save(context.Background(), store.StateRef("../escape"), 1, store.Meta{})
	if !errors.Is(err, store.ErrInvalidRef) {
		t.Fatalf("expected ErrInvalidRef, got %v", err)
	}
}

func TestFileStoreHonoursCancelledContext(t *testing.T) {
	s, _ := store.NewFileStore[int](t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Save(ctx, store.StateRef("f1"), 1, store.Meta{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
