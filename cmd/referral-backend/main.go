package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"referral-backend/internal/config"
	"referral-backend/internal/database"
	httpapi "referral-backend/internal/http"
	"referral-backend/internal/logger"
	"referral-backend/internal/repository"
	"referral-backend/internal/service"
	"referral-backend/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "referral-backend")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	repo := newStore(cfg, log)

	// Optional Redis read cache; the service runs identically without it.
	var cache store.KV
	if cfg.Cache.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		cache = store.NewRedisKV(redisClient)
		log.Info("list read cache enabled", zap.String("redis_addr", cfg.Cache.Addr))
	}

	svc := service.NewReferralService(repo, cache, log)
	handler := httpapi.NewReferralHandler(svc, log)
	router := httpapi.NewRouter(log)
	router.RegisterReferralRoutes(handler)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	go func() {
		log.Info("referral-backend listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}

// newStore selects the record store backend. A backend that cannot be
// initialized falls back to memory with a warning rather than refusing to
// start, so the workflow stays usable while the collaborator is repaired.
func newStore(cfg *config.Config, log *zap.Logger) repository.ReferralsRepository {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			log.Warn("postgres unavailable, falling back to memory store", zap.Error(err))
			return repository.NewMemoryReferralsRepo()
		}
		log.Info("using postgres record store", zap.String("db", cfg.Database.Database))
		return repository.NewPostgresReferralsRepo(db)

	case config.BackendSheets:
		if cfg.Sheets.SpreadsheetID == "" {
			log.Warn("SHEETS_SPREADSHEET_ID not set, falling back to memory store")
			return repository.NewMemoryReferralsRepo()
		}
		log.Info("using sheets record store",
			zap.String("spreadsheet_id", cfg.Sheets.SpreadsheetID),
			zap.String("worksheet", cfg.Sheets.Worksheet))
		return repository.NewSheetsReferralsRepo(repository.SheetsConfig{
			BaseURL:       cfg.Sheets.BaseURL,
			SpreadsheetID: cfg.Sheets.SpreadsheetID,
			Worksheet:     cfg.Sheets.Worksheet,
			Token:         cfg.Sheets.Token,
		}, log)

	case config.BackendWorkbook:
		repo, err := repository.NewWorkbookReferralsRepo(cfg.Workbook.Path)
		if err != nil {
			log.Warn("workbook unavailable, falling back to memory store", zap.Error(err))
			return repository.NewMemoryReferralsRepo()
		}
		log.Info("using workbook record store", zap.String("path", cfg.Workbook.Path))
		return repo

	case config.BackendMemory:
		log.Info("using in-memory record store")
		return repository.NewMemoryReferralsRepo()

	default:
		log.Warn("unknown STORE_BACKEND, using memory store", zap.String("value", cfg.StoreBackend))
		return repository.NewMemoryReferralsRepo()
	}
}
