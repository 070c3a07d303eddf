package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hookloop/internal/logger"
	"hookloop/internal/model"
)

// EventBroker is the fan-out contract the handlers depend on. The
// in-memory Broker covers a single process; RedisBroker spans replicas.
type EventBroker interface {
	Subscribe(tenantID int64) chan model.Event
	Unsubscribe(tenantID int64, ch chan model.Event)
	Publish(tenantID int64, evt model.Event)
}

// RedisBroker implements EventBroker over Redis pub/sub so viewers
// connected to different replicas still see every capture.
type RedisBroker struct {
	rdb *redis.Client
	mu  sync.Mutex
	ps  map[chan model.Event]*redis.PubSub
}

func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisBroker{rdb: redis.NewClient(opt), ps: map[chan model.Event]*redis.PubSub{}}, nil
}

func (b *RedisBroker) Subscribe(tenantID int64) chan model.Event {
	ch := make(chan model.Event, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(tenantID))
	// initial receive confirms the subscription is live
	_, _ = ps.Receive(ctx)
	b.mu.Lock()
	b.ps[ch] = ps
	b.mu.Unlock()
	go func() {
		for msg := range ps.Channel() {
			var evt model.Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
				select {
				case ch <- evt:
				default:
				}
			}
		}
		// the pump is the only closer, so no send can follow the close
		b.mu.Lock()
		delete(b.ps, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch
}

// Unsubscribe only closes the PubSub; the pump goroutine owns the map
// entry and close(ch), so an in-flight send can never hit a closed
// channel. Repeated calls are no-ops (PubSub.Close is idempotent).
func (b *RedisBroker) Unsubscribe(tenantID int64, ch chan model.Event) {
	b.mu.Lock()
	ps, ok := b.ps[ch]
	b.mu.Unlock()
	if ok {
		// ending the PubSub drains ps.Channel() and stops the pump
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(tenantID int64, evt model.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(evt)
	if err := b.rdb.Publish(ctx, b.chanName(tenantID), data).Err(); err != nil {
		logger.Warn("redis publish failed", zap.Error(err))
	}
}

func (b *RedisBroker) chanName(tenantID int64) string { return fmt.Sprintf("tenant:%d", tenantID) }
