package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shipyard/internal/blob/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return s
}

func TestStorePutOverwritesAndKeepsCreatedAt(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	s.nowFn = func() time.Time { return first }
	if _, err := s.Put(ctx, "designs/a.json", bytes.NewReader([]byte("one")), core.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	s.nowFn = func() time.Time { return second }
	info, err := s.Put(ctx, "designs/a.json", bytes.NewReader([]byte("two!")), core.PutOptions{})
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if info.Size != 4 || !info.LastModified.Equal(second) {
		t.Fatalf("unexpected info %+v", info)
	}
	mf, err := readMeta(filepath.Join(s.Root(), "designs", "a.json") + metaSuffix)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if !mf.CreatedAt.Equal(first) {
		t.Fatalf("created_at should survive overwrite, got %v", mf.CreatedAt)
	}
	_, rc, err := s.Get(ctx, "designs/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, _ := io.ReadAll(rc)
	if string(data) != "two!" {
		t.Fatalf("got %q", data)
	}
}

func TestStoreMissingKeys(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, iofs.ErrNotExist) || !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get: %v", err)
	}
	if _, err := s.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head: %v", err)
	}
	if ok, err := s.Delete(ctx, "missing"); err != nil || ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
}

func TestStoreReadsFilesWithoutSidecar(t *testing.T) {
	s := newStore(t)
	if err := os.WriteFile(filepath.Join(s.Root(), "hand.json"), []byte("{}"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, rc, err := s.Get(context.Background(), "hand.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = rc.Close()
	if info.Size != 2 {
		t.Fatalf("size %d", info.Size)
	}
	list, err := s.List(context.Background(), "")
	if err != nil || len(list) != 1 || list[0].Key != "hand.json" {
		t.Fatalf("list: %v %+v", err, list)
	}
}

func TestStoreListSortedWithPrefix(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, k := range []string{"b/2", "a/1", "b/1", "c"} {
		if _, err := s.Put(ctx, k, bytes.NewReader([]byte(k)), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := s.List(ctx, "b/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "b/1" || list[1].Key != "b/2" {
		t.Fatalf("unexpected list %+v", list)
	}
	if ok, err := s.Delete(ctx, "b/1"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "b", "1"+metaSuffix)); !errors.Is(err, iofs.ErrNotExist) {
		t.Fatalf("sidecar should be removed: %v", err)
	}
}

func TestSanitizeKey(t *testing.T) {
	for _, bad := range []string{"", "  ", "/abs", "../up", "a/../../b", "x.meta"} {
		if _, err := sanitizeKey(bad); !errors.Is(err, core.ErrInvalidKey) {
			t.Errorf("key %q: expected ErrInvalidKey, got %v", bad, err)
		}
	}
	if k, err := sanitizeKey("designs//a.json"); err != nil || k != "designs/a.json" {
		t.Fatalf("clean: %q %v", k, err)
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Put(ctx, "a", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
