package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	server "hotel_inventory/internal/adapters/http_server"
	"hotel_inventory/internal/adapters/observability"
	redisad "hotel_inventory/internal/adapters/redis"
	"hotel_inventory/internal/app"
	"hotel_inventory/internal/domain"
	"hotel_inventory/internal/shared"
	"hotel_inventory/internal/storage/memory"
	mysqlrepo "hotel_inventory/internal/storage/mysql"
	"hotel_inventory/internal/storage/retry"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// storage
	var (
		catalog domain.Catalog
		store   domain.InventoryStore
	)
	switch cfg.StoreDriver {
	case shared.StoreMemory:
		c, err := memory.LoadCatalogFile(cfg.CatalogFile, cfg.DefaultAllotment)
		if err != nil {
			log.Fatal().Err(err).Msg("load catalog")
		}
		catalog, store = c, memory.NewStore()
		log.Warn().Msg("memory store: overrides are lost on restart")
	default:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		repo := mysqlrepo.New(db, cfg.DefaultAllotment)
		catalog, store = repo, repo
	}
	store = retry.New(store, cfg.StoreRetries)

	// redis backs the catalog cache and, optionally, the key locks
	var rc *redis.Client
	if cfg.CacheTTLSeconds > 0 || cfg.LockDriver == shared.LockRedis {
		rc = redisad.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			if cfg.LockDriver == shared.LockRedis {
				log.Fatal().Err(err).Msg("redis ping failed")
			}
			log.Warn().Err(err).Msg("redis unreachable; catalog cache degrades to source reads")
		}
	}

	var cache domain.Cache
	if cfg.CacheTTLSeconds > 0 {
		cache = redisad.NewCache(rc, "inventory:")
	}
	catalog = app.NewCachedCatalog(catalog, cache, cfg.CacheTTL())

	var locks domain.KeyLocker = memory.NewLocker()
	if cfg.LockDriver == shared.LockRedis {
		locks = redisad.NewLocker(rc, cfg.LockTTL)
	}

	// app
	resolver := app.NewResolver(catalog, store, cfg.MaxRangeDays)
	handlers := &server.Handlers{
		Catalog:      catalog,
		Resolver:     resolver,
		Cells:        app.NewCellEditor(resolver, store, locks),
		Bulk:         app.NewBulkEditor(resolver, store, locks, cfg.MaxRangeDays, cfg.BulkWritesPerSec),
		Availability: app.NewAvailability(catalog, resolver, cfg.MaxRangeDays),
	}

	// http
	srv := server.New(cfg.RequestTimeout)
	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(handlers)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Str("locks", cfg.LockDriver).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}
