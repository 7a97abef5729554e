package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/sketchparty/server/internal/adapters/http"
	"github.com/sketchparty/server/internal/adapters/ws"
	"github.com/sketchparty/server/internal/app"
	"github.com/sketchparty/server/internal/config"
	"github.com/sketchparty/server/internal/core"
	"github.com/sketchparty/server/internal/rooms"
	"github.com/sketchparty/server/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	gateway, catalog, health, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up store")
	}
	defer closeStore()

	reg := core.NewConnectionRegistry()
	ctl := ws.NewController(reg, cfg.ReadLimit, cfg.PingPeriod)
	coord := app.NewCoordinator(reg, catalog, gateway, ctl, app.WithPersistAttempts(cfg.PersistAttempts))
	ctl.Coord = coord
	svc := rooms.NewService(catalog)

	r := router.SetupRouter(ctx, cfg, svc, ctl, health)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.Store).Msg("sketchparty server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

// buildStore picks the durable backend. Postgres carries actions and the
// room catalog; redis carries actions with an in-process catalog; memory is
// for development only.
func buildStore(ctx context.Context, cfg *config.Config) (store.Gateway, store.Catalog, gin.HandlerFunc, func(), error) {
	switch cfg.Store {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, nil, err
		}
		health := func(c *gin.Context) {
			status := "ok"
			if err := pool.Ping(c.Request.Context()); err != nil {
				status = "degraded"
			}
			c.JSON(http.StatusOK, gin.H{"status": status, "store": "postgres"})
		}
		return pg, pg, health, pool.Close, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		health := func(c *gin.Context) {
			status := "ok"
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				status = "degraded"
			}
			c.JSON(http.StatusOK, gin.H{"status": status, "store": "redis"})
		}
		return store.NewRedis(rdb), store.NewMemory(), health, func() { _ = rdb.Close() }, nil

	case "memory":
		mem := store.NewMemory()
		health := func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "store": "memory"})
		}
		return mem, mem, health, func() {}, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}
