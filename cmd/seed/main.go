package main

import (
	"context"
	"database/sql"
	"flag"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_inventory/internal/adapters/observability"
	"hotel_inventory/internal/shared"
	"hotel_inventory/internal/storage/memory"
	mysqlrepo "hotel_inventory/internal/storage/mysql"
)

// seed upserts the room types of a catalog file into MySQL.
func main() {
	workers := flag.Int("workers", 4, "concurrent upserts")
	flag.Parse()

	ctx := context.Background()
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if cfg.CatalogFile == "" {
		log.Fatal().Msg("CATALOG_FILE is required")
	}
	seed, err := memory.ReadSeedFile(cfg.CatalogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("read catalog file")
	}
	log.Info().Str("file", cfg.CatalogFile).Int("rooms", len(seed)).Int("workers", *workers).Msg("seed starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	repo := mysqlrepo.New(db, cfg.DefaultAllotment)

	sem := semaphore.NewWeighted(int64(max(*workers, 1)))
	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	for _, s := range seed {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}
		wg.Add(1)
		go func(s memory.SeedRoom) {
			defer wg.Done()
			defer sem.Release(1)

			if err := repo.UpsertRoomType(ctx, s.RoomType(cfg.DefaultAllotment), s.DefaultAllotment); err != nil {
				failed.Add(1)
				log.Warn().Str("room_type_id", s.ID).Err(err).Msg("seed failed")
				return
			}
			log.Info().Str("room_type_id", s.ID).Msg("seed ok")
		}(s)
	}
	wg.Wait()

	if n := failed.Load(); n > 0 {
		log.Fatal().Int32("failed", n).Msg("seed completed with failures")
	}
	log.Info().Msg("seed completed")
}
