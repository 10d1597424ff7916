// cmd/historian/main.go drains the round history queue that the game server
// fills and keeps per-profile standings, logging them after every batch.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/threecard/internal/config"
	"github.com/jason-s-yu/threecard/internal/history"
	"github.com/jason-s-yu/threecard/internal/logging"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logging.New(config.GetEnv("LOG_LEVEL", "info"), config.GetEnv("LOG_FORMAT", "text"))

	rdb := redis.NewClient(&redis.Options{
		Addr: config.GetEnv("REDIS_ADDR", "localhost:6379"),
		DB:   config.GetEnvInt("REDIS_DB", 0),
	})
	defer rdb.Close()

	ledger := history.NewLedger()
	sink := func(recs []history.Record) error {
		if err := ledger.Apply(recs); err != nil {
			return err
		}
		for _, s := range ledger.Standings() {
			logger.WithFields(logrus.Fields{
				"profile":    s.Profile,
				"rounds":     s.RoundsPlayed,
				"roundsWon":  s.RoundsWon,
				"matchesWon": s.MatchesWon,
				"netWorth":   s.NetWorth,
			}).Info("standing")
		}
		return nil
	}

	consumer := history.NewConsumer(rdb,
		config.GetEnv("HISTORY_QUEUE_NAME", history.DefaultQueueName),
		config.GetEnvInt("HISTORIAN_BATCH_SIZE", 20),
		time.Duration(config.GetEnvInt("HISTORIAN_FLUSH_MS", 500))*time.Millisecond,
		sink, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("threecard historian started")
	if err := consumer.Run(ctx); err != nil {
		logger.WithError(err).Error("historian stopped")
	}
	logger.Info("threecard historian shutdown complete")
}
