// internal/history/consumer.go
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SinkFunc receives records in the order they were queued.
type SinkFunc func(recs []Record) error

// Consumer pops records off the queue and hands them to a sink in batches, the
// way the historian service drains the action queue.
type Consumer struct {
	rdb        *redis.Client
	queue      string
	batchSize  int
	flushDelay time.Duration
	sink       SinkFunc
	log        logrus.FieldLogger

	batch     []Record
	lastFlush time.Time
}

func NewConsumer(rdb *redis.Client, queue string, batchSize int, flushDelay time.Duration, sink SinkFunc, log logrus.FieldLogger) *Consumer {
	if batchSize < 1 {
		batchSize = 1
	}
	if flushDelay <= 0 {
		flushDelay = time.Second
	}
	return &Consumer{
		rdb:        rdb,
		queue:      queue,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		sink:       sink,
		log:        log.WithField("queue", queue),
		batch:      make([]Record, 0, batchSize),
	}
}

// Run blocks until ctx ends, flushing whatever is buffered on the way out.
func (c *Consumer) Run(ctx context.Context) error {
	c.lastFlush = time.Now()
	for {
		if ctx.Err() != nil {
			c.flush()
			return nil
		}
		// the pop timeout doubles as the flush timer
		res, err := c.rdb.BLPop(ctx, c.flushDelay, c.queue).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			if ctx.Err() != nil {
				continue
			}
			c.log.WithError(err).Error("BLPop")
			time.Sleep(c.flushDelay)
			continue
		case len(res) >= 2:
			rec, err := DecodeRecord(res[1])
			if err != nil {
				c.log.WithError(err).Warn("invalid history record")
				break
			}
			c.batch = append(c.batch, rec)
		}
		if len(c.batch) >= c.batchSize || time.Since(c.lastFlush) >= c.flushDelay {
			c.flush()
		}
	}
}

func (c *Consumer) flush() {
	c.lastFlush = time.Now()
	if len(c.batch) == 0 {
		return
	}
	batch := append([]Record(nil), c.batch...)
	c.batch = c.batch[:0]
	if err := c.sink(batch); err != nil {
		c.log.WithError(err).WithField("records", len(batch)).Error("sink failed")
		return
	}
	c.log.WithField("records", len(batch)).Debug("flushed history batch")
}

// DecodeRecord parses one queued payload.
func DecodeRecord(payload string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return Record{}, fmt.Errorf("decode history record: %w", err)
	}
	if rec.Kind != KindRound && rec.Kind != KindMatch {
		return Record{}, fmt.Errorf("decode history record: unknown kind %q", rec.Kind)
	}
	return rec, nil
}
