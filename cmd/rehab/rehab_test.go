package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/tbourn/rehab-plan-backend/internal/config"
	"github.com/tbourn/rehab-plan-backend/internal/http/middleware"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
)

const catalogYAML = `buckets:
  - key: knee_mobility
    name: Knee mobility
    area: knee
    tags: [stairs]
    exercises:
      - key: heel_slides
        name: Heel slides
        difficulty: 1
        sets: 2
        reps: 10
      - key: quad_sets
        name: Quad sets
        difficulty: 1
        sets: 3
        reps: 10
        hold_seconds: 5
`

func withConfig(t *testing.T, c config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestSeed_ThenLoadIndex(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(file, []byte(catalogYAML), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	withConfig(t, config.Config{DBPath: filepath.Join(dir, "rehab.db"), CatalogPath: file})

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	if err := runSeed(cmd, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Seeding again updates in place.
	if err := runSeed(cmd, nil); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	db, err := openDB(false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeDB(db)
	idx, err := loadIndex(context.Background(), db)
	if err != nil {
		t.Fatalf("loadIndex: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("want 1 bucket, got %d", idx.Len())
	}
	if m := idx.Lookup("knee", nil); len(m) != 1 || len(m[0].Bucket.Exercises) != 2 {
		t.Fatalf("unexpected lookup: %+v", m)
	}
}

func TestSeed_MissingFile(t *testing.T) {
	dir := t.TempDir()
	withConfig(t, config.Config{DBPath: filepath.Join(dir, "rehab.db"), CatalogPath: filepath.Join(dir, "nope.yaml")})
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	if err := runSeed(cmd, nil); err == nil {
		t.Fatalf("expected error for missing catalog")
	}
}

func TestOpenDB_MissingDirectory(t *testing.T) {
	withConfig(t, config.Config{DBPath: filepath.Join(t.TempDir(), "missing", "rehab.db")})
	if _, err := openDB(true); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

func TestPurgeIdempotency_StopsOnCancel(t *testing.T) {
	withConfig(t, config.Config{DBPath: filepath.Join(t.TempDir(), "rehab.db")})
	db, err := openDB(true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeDB(db)

	ctx := context.Background()
	if _, err := repo.CreateIdempotency(ctx, db, "u1", "p1", "k", "l1", 201, time.Millisecond); err != nil {
		t.Fatalf("seed key: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		purgeIdempotency(ctx, db, 20*time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("purge loop did not stop")
	}

	var n int64
	db.Table("idempotency").Count(&n)
	if n != 0 {
		t.Fatalf("expired key should be purged, %d left", n)
	}
}

func TestTokenCommand(t *testing.T) {
	withConfig(t, config.Config{Auth: config.AuthConfig{JWTSecret: "s3cret"}})
	tokenUser, tokenTZ, tokenTTL = "u42", "Europe/Athens", time.Minute

	var out bytes.Buffer
	tokenCmd.SetOut(&out)
	if err := tokenCmd.RunE(tokenCmd, nil); err != nil {
		t.Fatalf("token: %v", err)
	}
	raw := strings.TrimSpace(out.String())
	claims, err := middleware.ParseToken(jwt.NewParser(), []byte("s3cret"), raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	if claims.Subject != "u42" || claims.TZ != "Europe/Athens" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	withConfig(t, config.Config{})
	if err := tokenCmd.RunE(tokenCmd, nil); err == nil {
		t.Fatalf("expected error without a secret")
	}
}
