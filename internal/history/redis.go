// internal/history/redis.go
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list records are pushed to.
const DefaultQueueName = "threecard_rounds"

const (
	queueDepth   = 128
	pushTimeout  = 3 * time.Second
	pingTimeout  = 5 * time.Second
	drainTimeout = 5 * time.Second
)

// RedisPublisher pushes JSON records onto a Redis list from a background
// goroutine, so the game loop never waits on the network.
type RedisPublisher struct {
	rdb   *redis.Client
	queue string
	log   logrus.FieldLogger

	records chan Record
	wg      sync.WaitGroup
	once    sync.Once
}

// ConnectRedis dials addr, checks it with PING and starts the push worker.
func ConnectRedis(addr string, db int, queue string, log logrus.FieldLogger) (*RedisPublisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return NewRedisPublisher(rdb, queue, log), nil
}

// NewRedisPublisher wraps an existing client.
func NewRedisPublisher(rdb *redis.Client, queue string, log logrus.FieldLogger) *RedisPublisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	p := &RedisPublisher{
		rdb:     rdb,
		queue:   queue,
		log:     log.WithField("queue", queue),
		records: make(chan Record, queueDepth),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Publish queues rec. When the worker has fallen behind the record is dropped
// and logged rather than stalling the caller.
func (p *RedisPublisher) Publish(rec Record) {
	select {
	case p.records <- rec:
	default:
		p.log.WithFields(logrus.Fields{"kind": rec.Kind, "round": rec.Round}).Warn("history queue full, dropping record")
	}
}

// Close flushes queued records and closes the client.
func (p *RedisPublisher) Close() error {
	var err error
	p.once.Do(func() {
		close(p.records)
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(drainTimeout):
			p.log.Warn("history drain timed out")
		}
		err = p.rdb.Close()
	})
	return err
}

func (p *RedisPublisher) run() {
	defer p.wg.Done()
	for rec := range p.records {
		if err := p.push(rec); err != nil {
			p.log.WithError(err).Warn("failed to publish history record")
		}
	}
}

func (p *RedisPublisher) push(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}
