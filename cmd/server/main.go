package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soaringjerry/Studia/internal/api"
	"github.com/soaringjerry/Studia/internal/config"
	dbstore "github.com/soaringjerry/Studia/internal/db"
	"github.com/soaringjerry/Studia/internal/jobs"
	"github.com/soaringjerry/Studia/internal/middleware"
	"github.com/soaringjerry/Studia/internal/services"
	"github.com/soaringjerry/Studia/internal/utils"
)

func main() {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg, os.Args[2:]); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	if cfg.JWTSecret == "" {
		log.Printf("warning: STUDIA_JWT_SECRET not set, using the development key")
	}
	middleware.SetSecret(cfg.JWTSecret)

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	scheduler, err := services.NewSRSScheduler(cfg.SRS)
	if err != nil {
		log.Fatalf("srs: %v", err)
	}

	router := api.NewRouter(store, api.Options{Scheduler: scheduler, EnableSeed: cfg.EnableSeed})
	mux := http.NewServeMux()
	router.Register(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		locale := middleware.LocaleFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"name":   "Studia API",
			"locale": locale,
			"msg":    utils.T(locale, "health.ok"),
			"store":  cfg.Store,
			"commit": cfg.Commit,
		})
	})

	handler := middleware.RequestID(
		middleware.AccessLog(
			middleware.SecureHeaders(
				middleware.CORS(cfg.AllowedOrigins)(
					middleware.LocaleMiddleware(
						middleware.WithAuth(mux))))))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go jobs.NewAttemptSweeper(router.Attempts(), cfg.SweepInterval).Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Studia server listening on %s (store=%s)", cfg.Addr, cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// openStore returns the in-memory store or a migrated gorm store.
func openStore(cfg *config.Config) (api.Store, error) {
	if cfg.Store == config.StoreMemory {
		if cfg.SnapshotPath == "" {
			return api.NewMemoryStore(), nil
		}
		log.Printf("loading snapshot %s into the memory store", cfg.SnapshotPath)
		return api.NewMemoryStoreFromPath(cfg.SnapshotPath)
	}
	gdb, err := dbstore.Open(cfg.Store, cfg.DBURL)
	if err != nil {
		return nil, err
	}
	if err := dbstore.Migrate(gdb, cfg.MigrationsDir); err != nil {
		return nil, err
	}
	return dbstore.NewStore(gdb)
}
