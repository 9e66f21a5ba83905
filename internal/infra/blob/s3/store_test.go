package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"testing"

	"shipyard/internal/blob/core"
)

func TestStoreMockedBasicFlow(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	info, err := store.Put(ctx, "designs/frigate.json", bytes.NewReader([]byte(`{"version":"2.3"}`)), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "designs/frigate.json" || info.ContentType != "application/json" {
		t.Fatalf("unexpected info %#v", info)
	}
	if _, err := store.Put(ctx, "designs/frigate.json", bytes.NewReader([]byte(`{"version":"2.3","name":"b"}`)), core.PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, rc, err := store.Get(ctx, "designs/frigate.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != `{"version":"2.3","name":"b"}` {
		t.Fatalf("expected overwritten content, got %q", data)
	}
	list, err := store.List(ctx, "designs/")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
	if ok, err := store.Delete(ctx, "designs/frigate.json"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "designs/frigate.json"); err != nil || ok {
		t.Fatalf("second delete should report missing: %v %v", ok, err)
	}
}

func TestStoreMissingKeysMapToNotFound(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	if _, err := store.Head(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head: expected ErrNotFound, got %v", err)
	}
	_, _, err := store.Get(ctx, "nope")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("get: expected fs.ErrNotExist, got %v", err)
	}
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	store := NewMockForTests()
	if _, err := store.Put(context.Background(), " ", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestNewWithStaticCredentials(t *testing.T) {
	s, err := New(context.Background(), Config{
		Bucket:          "bkt",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Driver() != core.DriverS3 || s.Bucket() != "bkt" {
		t.Fatalf("unexpected store %+v", s)
	}
}

func TestDecodeChunked(t *testing.T) {
	if out, ok := decodeChunked([]byte("5\r\nhello\r\n0\r\n\r\n")); !ok || string(out) != "hello" {
		t.Fatalf("decode: %q %v", out, ok)
	}
	if _, ok := decodeChunked([]byte("plain body")); ok {
		t.Fatalf("plain body must not decode")
	}
	if _, ok := decodeChunked([]byte("zz\r\nhello\r\n0\r\n")); ok {
		t.Fatalf("bad hex must not decode")
	}
}
