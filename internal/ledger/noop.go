package ledger

import (
  "context"
  "github.com/google/uuid"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

// NewNoopGateway is the boot fallback when no ledger endpoint is
// configured. Every call reports degraded mode so callers record
// ledger_registered=false and continue.
func NewNoopGateway(log *logger.Logger) Gateway {
  return &noopGateway{log: log.With("service", "NoopLedgerGateway")}
}

type noopGateway struct {
  log *logger.Logger
}

func (g *noopGateway) RegisterClaim(ctx context.Context, claim *types.Claim) Result {
  g.log.Debug("Ledger disabled; skipping RegisterClaim", "claim_id", claim.ID)
  return Result{Err: types.ErrLedgerUnavailable}
}

func (g *noopGateway) CastVoteOnChain(ctx context.Context, vote *types.Vote) Result {
  g.log.Debug("Ledger disabled; skipping CastVoteOnChain", "vote_id", vote.ID)
  return Result{Err: types.ErrLedgerUnavailable}
}

func (g *noopGateway) ExecuteDecision(ctx context.Context, claimID uuid.UUID, approved bool) Result {
  g.log.Debug("Ledger disabled; skipping ExecuteDecision", "claim_id", claimID)
  return Result{Err: types.ErrLedgerUnavailable}
}
