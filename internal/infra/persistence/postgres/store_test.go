package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"shipyard/internal/infra/persistence/postgres/testutil"
	"shipyard/internal/library/core"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreCreatesTableAndLoadsRows(t *testing.T) {
	db, conn := testutil.NewStubDB()
	stamp := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	conn.Tables["designs"] = []map[string]any{
		{"name": "Hood", "version": "2.1", "payload": []byte(`{"version":"2.1"}`), "modified_at": stamp},
	}
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore(context.Background(), "postgres://ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS designs") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected designs DDL, got %v", conn.Execs)
	}
	entry, payload, err := store.Get(context.Background(), "Hood")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.Version != "2.1" || entry.Size != int64(len(payload)) || !entry.ModifiedAt.Equal(stamp) {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if store.Driver() != core.DriverPostgres || store.DB() != db {
		t.Fatalf("unexpected store wiring")
	}
}

func TestPutWritesThroughAndUpserts(t *testing.T) {
	store, conn := openStub(t)
	ctx := context.Background()
	if _, err := store.Put(ctx, "Hood", []byte(`{"version":"2.2"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "Hood", []byte(`{"version":"2.3"}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rows := conn.Tables["designs"]
	if len(rows) != 1 || rows[0]["version"] != "2.3" {
		t.Fatalf("expected a single upserted row, got %v", rows)
	}
	list, _ := store.List(ctx)
	if len(list) != 1 || list[0].Version != "2.3" {
		t.Fatalf("cache not refreshed: %+v", list)
	}
}

func TestPutFailureLeavesCacheUntouched(t *testing.T) {
	store, conn := openStub(t)
	conn.FailTables = map[string]bool{"designs": true}
	if _, err := store.Put(context.Background(), "Hood", []byte(`{}`)); err == nil {
		t.Fatalf("expected exec failure")
	}
	if _, _, err := store.Get(context.Background(), "Hood"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("failed write must not be cached: %v", err)
	}
}

func TestDeleteRemovesRowAndCache(t *testing.T) {
	store, conn := openStub(t)
	ctx := context.Background()
	if _, err := store.Put(ctx, "Ajax", []byte(`{"version":"2.3"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, _, err := store.Get(ctx, " Ajax"); err != nil {
		t.Fatalf("get padded name: %v", err)
	}
	if ok, err := store.Delete(ctx, "Ajax "); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if len(conn.Tables["designs"]) != 0 {
		t.Fatalf("row not deleted: %v", conn.Tables["designs"])
	}
	if ok, err := store.Delete(ctx, "Ajax"); err != nil || ok {
		t.Fatalf("second delete: %v %v", ok, err)
	}
}

func TestNewStoreSurfacesPingAndQueryErrors(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailExec = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected ping failure")
	}
	restore()

	db, conn = testutil.NewStubDB()
	conn.FailTables = map[string]bool{"designs": true}
	restore = OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected select failure")
	}
}
