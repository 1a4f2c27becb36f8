package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vineet-vishwakarma/Chat-App/internal/config"
	"github.com/vineet-vishwakarma/Chat-App/internal/db"
	clog "github.com/vineet-vishwakarma/Chat-App/internal/log"
	"github.com/vineet-vishwakarma/Chat-App/internal/mw"
	"github.com/vineet-vishwakarma/Chat-App/internal/presence"
	"github.com/vineet-vishwakarma/Chat-App/internal/server"
	"github.com/vineet-vishwakarma/Chat-App/internal/service"
	"github.com/vineet-vishwakarma/Chat-App/internal/session"
	"github.com/vineet-vishwakarma/Chat-App/internal/store"
	"github.com/vineet-vishwakarma/Chat-App/internal/translate"
	"github.com/vineet-vishwakarma/Chat-App/internal/ws"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	clog.Init(cfg.Env)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	st, err := openStore(cfg, gdb)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.MessageStore).Msg("open message store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("close message store")
		}
	}()

	hub := ws.NewHub()
	reg := presence.NewRegistry(hub)
	sessions := session.NewService(st, reg, hub)

	userSvc := service.NewUserService(gdb, cfg, reg)
	handler := server.NewHandler(cfg, userSvc, service.NewRoomService(hub),
		service.NewMessageService(st, translate.NewClient(cfg)))

	limiter := mw.NewRateLimiter(rate.Every(time.Second/20), 40, 2*time.Minute).Start()
	defer limiter.Stop()

	r := server.SetupRouter(cfg, server.Deps{
		Handler:  handler,
		Lookup:   userSvc,
		Sessions: sessions,
		Limiter:  limiter,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.MessageStore).Msg("http listen")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}

func openStore(cfg config.Config, gdb *gorm.DB) (store.Store, error) {
	if cfg.MessageStore == config.StoreBadger {
		return store.OpenBadger(cfg.BadgerPath)
	}
	return store.NewGormStore(gdb), nil
}
