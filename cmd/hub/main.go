package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hub/internal/config"
	"hub/internal/logger"
	"hub/internal/models"
	"hub/internal/remote"
	"hub/internal/server"
	"hub/internal/storage/rediscache"
	"hub/internal/storage/sqlite"
)

func main() {
	configFlag := flag.String("config", "config.yaml", "Path to YAML config file")
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbFlag := flag.String("db", "", "Path to sqlite database file (overrides config)")
	staticFlag := flag.String("static", "", "Directory with built frontend (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}
	if *dbFlag != "" {
		cfg.Database.Path = *dbFlag
	}
	if *staticFlag != "" {
		cfg.Server.StaticDir = *staticFlag
	}

	log := logger.New(cfg.Log.Level)
	log.Info().Str("addr", cfg.Server.Addr).Str("db", cfg.Database.Path).Bool("redis", cfg.Redis.Enabled).Msg("starting hub")

	db, err := sqlite.Open(cfg.Database.Path, log)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to open database")
	}
	defer db.Close()

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 5*time.Second)
	owner, err := db.EnsureUser(seedCtx, models.User{
		Name:     cfg.Seed.Name,
		Username: cfg.Seed.Username,
		Email:    cfg.Seed.Email,
	})
	cancelSeed()
	if err != nil {
		log.Fatal().Err(err).Msg("unable to seed workspace user")
	}
	log.Info().Str("user_id", owner.ID).Str("username", owner.Username).Msg("workspace user ready")

	var service remote.Service = db
	if cfg.Redis.Enabled {
		rdb, err := connectRedis(cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("unable to reach redis")
		}
		defer rdb.Close()
		service = rediscache.New(db, rdb, cfg.Redis.TTL, log)
	}

	srv := server.New(service, log, server.Options{
		StaticDir:     cfg.Server.StaticDir,
		Mode:          cfg.Server.Mode,
		CORSOrigins:   cfg.Server.CORSOrigins,
		WaitlistRPS:   cfg.Server.WaitlistRPS,
		WaitlistBurst: cfg.Server.WaitlistBurst,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server")
	}

	log.Info().Msg("server stopped")
}

func connectRedis(cfg config.RedisConfig, log zerolog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	log.Info().Str("addr", cfg.Addr).Dur("ttl", cfg.TTL).Msg("redis read cache enabled")
	return rdb, nil
}
