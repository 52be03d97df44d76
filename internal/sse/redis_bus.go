package sse

import (
  "context"
  "encoding/json"
  "fmt"
  "strings"
  "time"

  goredis "github.com/redis/go-redis/v9"

  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/utils"
)

// Bus fans SSE messages out across service instances. With a single
// instance the hub alone is enough; with several, every instance
// publishes governance events here and forwards received ones into its
// local hub.
type Bus interface {
  Publish(ctx context.Context, msg SSEMessage) error
  StartForwarder(ctx context.Context, onMsg func(m SSEMessage)) error
  Close() error
}

type redisBus struct {
  log     *logger.Logger
  rdb     *goredis.Client
  channel string
}

func NewRedisBus(log *logger.Logger) (Bus, error) {
  if log == nil {
    return nil, fmt.Errorf("logger required")
  }

  addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
  if addr == "" {
    return nil, fmt.Errorf("missing REDIS_ADDR")
  }
  ch := strings.TrimSpace(utils.GetEnv("REDIS_CHANNEL", "governance-events", log))

  rdb := goredis.NewClient(&goredis.Options{
    Addr:        addr,
    DialTimeout: 5 * time.Second,
  })

  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    _ = rdb.Close()
    return nil, fmt.Errorf("redis ping: %w", err)
  }

  return &redisBus{
    log:     log.With("service", "RedisEventBus"),
    rdb:     rdb,
    channel: ch,
  }, nil
}

func (b *redisBus) Publish(ctx context.Context, msg SSEMessage) error {
  if b == nil || b.rdb == nil {
    return fmt.Errorf("redis event bus not initialized")
  }
  raw, err := json.Marshal(msg)
  if err != nil {
    return err
  }
  return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m SSEMessage)) error {
  if b == nil || b.rdb == nil {
    return fmt.Errorf("redis event bus not initialized")
  }
  if onMsg == nil {
    return fmt.Errorf("onMsg callback required")
  }

  sub := b.rdb.Subscribe(ctx, b.channel)

  // ensures subscription actually started
  if _, err := sub.Receive(ctx); err != nil {
    _ = sub.Close()
    return fmt.Errorf("redis subscribe: %w", err)
  }

  go func() {
    defer func() { _ = sub.Close() }()
    msgs := sub.Channel()
    for {
      select {
      case <-ctx.Done():
        return
      case m, ok := <-msgs:
        if !ok {
          return
        }
        var parsed SSEMessage
        if err := json.Unmarshal([]byte(m.Payload), &parsed); err != nil {
          b.log.Warn("Dropping unparseable bus message", "error", err)
          continue
        }
        onMsg(parsed)
      }
    }
  }()
  return nil
}

func (b *redisBus) Close() error {
  if b == nil || b.rdb == nil {
    return nil
  }
  return b.rdb.Close()
}
