package services

import (
  "context"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/sse"
)

// GovernanceNotifier pushes claim/vote lifecycle events to connected
// clients. The bus is optional; when present every event also crosses
// instances before fanning out of each local hub.
type GovernanceNotifier interface {
  Notify(ctx context.Context, msg sse.SSEMessage)
}

type governanceNotifier struct {
  log *logger.Logger
  hub *sse.SSEHub
  bus sse.Bus
}

func NewGovernanceNotifier(baseLog *logger.Logger, hub *sse.SSEHub, bus sse.Bus) GovernanceNotifier {
  return &governanceNotifier{
    log: baseLog.With("service", "GovernanceNotifier"),
    hub: hub,
    bus: bus,
  }
}

func (n *governanceNotifier) Notify(ctx context.Context, msg sse.SSEMessage) {
  if n.hub != nil {
    n.hub.Broadcast(msg)
  }
  if n.bus != nil {
    if err := n.bus.Publish(ctx, msg); err != nil {
      n.log.Warn("Failed to publish event to bus", "event", msg.Event, "channel", msg.Channel, "error", err)
    }
  }
}

// NoopNotifier is for wiring paths (tests, workers without realtime)
// that do not push events anywhere.
func NoopNotifier() GovernanceNotifier {
  return noopNotifier{}
}

type noopNotifier struct{}

func (noopNotifier) Notify(ctx context.Context, msg sse.SSEMessage) {}
