package main

import (
	"context"
	"net/http"
	"time"

	"fourline/internal/config"
	"fourline/internal/logging"
	"fourline/internal/registry"
	"fourline/internal/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}

	reg := registry.New(registry.Config{
		GracePeriod:   cfg.GracePeriod,
		TeardownDelay: cfg.TeardownDelay,
		IdleTimeout:   cfg.IdleTimeout,
	})
	reg.StartJanitor(context.Background(), cfg.SweepInterval)

	wsServer := ws.NewServer(reg, cfg.AllowedOrigin)
	r := newRouter(cfg, wsServer)
	logRoutes(r)

	// No ReadTimeout: websocket connections are long-lived and a whole-request
	// deadline would cut them off mid-game.
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
