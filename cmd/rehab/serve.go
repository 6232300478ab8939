package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/catalog"
	"github.com/tbourn/rehab-plan-backend/internal/dedup"
	httpapi "github.com/tbourn/rehab-plan-backend/internal/http"
	"github.com/tbourn/rehab-plan-backend/internal/observability"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
	"github.com/tbourn/rehab-plan-backend/internal/sysutil"
)

const (
	shutdownTimeout = 15 * time.Second
	purgeInterval   = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// AUTO_MIGRATE=false leaves schema changes to `rehab migrate`.
	autoMigrate := os.Getenv("AUTO_MIGRATE") == "" || sysutil.IsTruthy(os.Getenv("AUTO_MIGRATE"))
	db, err := openDB(autoMigrate)
	if err != nil {
		return err
	}
	defer closeDB(db)

	idx, err := loadIndex(ctx, db)
	if err != nil {
		return err
	}

	var store dedup.Store
	if cfg.Redis.Addr != "" {
		rs, err := dedup.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Prefix)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, dedup cache stays in process")
		} else {
			defer rs.Close()
			store = rs
		}
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:      db,
		Catalog: idx,
		Gateway: httpapi.NewGateway(cfg.AI),
		Store:   store,
	}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Bool("ai_enabled", cfg.AI.Enabled).
			Bool("auth_tokens", cfg.Auth.JWTSecret != "").
			Int("catalog_buckets", idx.Len()).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		purgeIdempotency(gctx, db, purgeInterval)
		return nil
	})
	return g.Wait()
}

// loadIndex builds the in-memory catalog index from the database.
func loadIndex(ctx context.Context, db *gorm.DB) (catalog.Index, error) {
	buckets, err := repo.LoadCatalog(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		log.Warn().Msg("exercise catalog is empty; run `rehab seed`")
	}
	return catalog.NewIndex(catalog.FromModels(buckets)), nil
}

// purgeIdempotency deletes expired idempotency records every interval
// until ctx is done.
func purgeIdempotency(ctx context.Context, db *gorm.DB, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency keys")
				continue
			}
			if n > 0 {
				log.Debug().Int64("deleted", n).Msg("purged idempotency keys")
			}
		}
	}
}
