package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetIdempotency_NoScope_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	rec, err := GetIdempotency(context.Background(), db, "u1", "   ", "k1", time.Now().UTC())
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for empty scope, got (%v, %v)", rec, err)
	}
}

func TestIdempotency_CreateGetDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, "u1", "p1", "k1", "log-1", 201, time.Hour)
	if err != nil || rec.ResourceID != "log-1" {
		t.Fatalf("CreateIdempotency: %v %+v", err, rec)
	}
	if _, err := CreateIdempotency(ctx, db, "u1", "p1", "k1", "log-2", 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
	// Same key in another scope is independent.
	if _, err := CreateIdempotency(ctx, db, "u1", "p2", "k1", "log-3", 201, time.Hour); err != nil {
		t.Fatalf("other scope: %v", err)
	}
	got, err := GetIdempotency(ctx, db, "u1", "p1", "k1", time.Now().UTC())
	if err != nil || got.ResourceID != "log-1" || got.Status != 201 {
		t.Fatalf("GetIdempotency: %v %+v", err, got)
	}
}

func TestIdempotency_ExpiredIsReplaced(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if _, err := CreateIdempotency(ctx, db, "u1", "p1", "k1", "old", 201, -time.Minute); err != nil {
		t.Fatalf("create expired: %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "u1", "p1", "k1", time.Now().UTC()); err != ErrNotFound {
		t.Fatalf("expired record should be invisible, got %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "u1", "p1", "k1", "new", 201, time.Hour); err != nil {
		t.Fatalf("replace expired: %v", err)
	}
	got, _ := GetIdempotency(ctx, db, "u1", "p1", "k1", time.Now().UTC())
	if got == nil || got.ResourceID != "new" {
		t.Fatalf("replacement not visible: %+v", got)
	}

	_, _ = CreateIdempotency(ctx, db, "u1", "p1", "k2", "gone", 201, -time.Minute)
	n, err := PurgeExpiredIdempotency(ctx, db, time.Now().UTC())
	if err != nil || n != 1 {
		t.Fatalf("purge: n=%d err=%v", n, err)
	}
}
