// cmd/server/main.go
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/threecard/internal/config"
	"github.com/jason-s-yu/threecard/internal/history"
	"github.com/jason-s-yu/threecard/internal/logging"
	"github.com/jason-s-yu/threecard/internal/server"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	var pub history.Publisher = history.Nop{}
	if cfg.RedisAddr != "" {
		rp, err := history.ConnectRedis(cfg.RedisAddr, cfg.RedisDB, cfg.HistoryQueue, logger)
		if err != nil {
			logger.WithError(err).Warn("round history disabled")
		} else {
			pub = rp
		}
	}
	defer pub.Close()

	srv, err := server.New(cfg, logger, pub)
	if err != nil {
		logger.WithError(err).Fatal("bad configuration")
	}
	if err := srv.Start(); err != nil {
		logger.WithError(err).Fatal("server failed to start")
	}
	logger.WithField("seats", cfg.ProfileIDs).Infof("Running on %s", srv.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	srv.Stop()
}
