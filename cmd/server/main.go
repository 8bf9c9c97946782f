package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/contasdev/contas-api/internal/auth"
	"github.com/contasdev/contas-api/internal/cache"
	"github.com/contasdev/contas-api/internal/config"
	"github.com/contasdev/contas-api/internal/infra"
	"github.com/contasdev/contas-api/internal/logger"
	"github.com/contasdev/contas-api/internal/middleware"
	"github.com/contasdev/contas-api/internal/store"
	"github.com/contasdev/contas-api/internal/user"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	zl, err := logger.New(cfg.Production())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	// ── PostgreSQL ────────────────────────────────────────────
	pool, err := store.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		zl.Fatal("postgres connect", zap.Error(err))
	}
	defer pool.Close()

	sqlDB, err := store.NewSQLDB(cfg.PostgresDSN)
	if err != nil {
		zl.Fatal("postgres open", zap.Error(err))
	}
	defer sqlDB.Close()

	migrator, err := store.NewMigrator(sqlDB)
	if err != nil {
		zl.Fatal("migrator", zap.Error(err))
	}
	applied, err := migrator.Up(ctx)
	if err != nil {
		zl.Fatal("migrations", zap.Error(err))
	}
	if len(applied) > 0 {
		zl.Info("migrations applied", zap.Int("count", len(applied)))
	}

	users := store.NewUserStore(pool)
	sessions := store.NewSessionStore(pool)

	// ── Redis (optional profile cache) ───────────────────────
	var userCache *cache.Cache
	if cfg.RedisAddr != "" {
		userCache, err = cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			zl.Fatal("redis connect", zap.Error(err))
		}
		defer userCache.Close()
	}

	// ── Handlers ─────────────────────────────────────────────
	manager := auth.NewManager(sessions, users, cfg.SessionTTL, nil)
	authHandler := auth.NewHandler(manager, users, cfg.Production(), zl)
	userHandler := user.NewHandler(users, userCache, cfg.BcryptCost, zl)
	infraHandler := infra.NewHandler(pool, migrator, zl)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(zl))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", userHandler.Create)
		r.Get("/users/{username}", userHandler.Get)
		r.Patch("/users/{username}", userHandler.Update)

		r.Get("/user", authHandler.CurrentUser)
		r.Post("/sessions", authHandler.Login)
		r.Delete("/sessions", authHandler.Logout)

		r.Get("/status", infraHandler.GetStatus)
		r.Get("/migrations", infraHandler.ListMigrations)
		r.Post("/migrations", infraHandler.RunMigrations)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		zl.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
}
