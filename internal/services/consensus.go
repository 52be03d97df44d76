package services

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/gorm"

  "github.com/AjnasNB/guardchain-sub000/internal/ledger"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/repos"
  "github.com/AjnasNB/guardchain-sub000/internal/sse"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

const (
  evalRetryBackoff    = 30 * time.Second
  evalRetryBackoffMax = 60 * time.Second
)

// ConsensusMonitor is the periodic evaluator that takes proposals from
// Monitoring to Resolved. One sweep goroutine covers every active
// proposal, so the number of live timers stays constant regardless of
// how many claims are open. Resolution rides on two conditional writes
// (claim status, then proposal status), which keeps overlapping sweeps
// and multiple service instances idempotent: whichever write lands first
// wins, the loser sees zero rows and moves on.
type ConsensusMonitor struct {
  db            *gorm.DB
  log           *logger.Logger
  claimRepo     repos.ClaimRepo
  proposalRepo  repos.ProposalRepo
  ledgerGateway ledger.Gateway
  notifier      GovernanceNotifier
  cfg           GovernanceConfig
  wake          chan struct{}
}

func NewConsensusMonitor(
  db *gorm.DB,
  baseLog *logger.Logger,
  claimRepo repos.ClaimRepo,
  proposalRepo repos.ProposalRepo,
  ledgerGateway ledger.Gateway,
  notifier GovernanceNotifier,
  cfg GovernanceConfig,
) *ConsensusMonitor {
  return &ConsensusMonitor{
    db:            db,
    log:           baseLog.With("component", "ConsensusMonitor"),
    claimRepo:     claimRepo,
    proposalRepo:  proposalRepo,
    ledgerGateway: ledgerGateway,
    notifier:      notifier,
    cfg:           cfg,
    wake:          make(chan struct{}, 1),
  }
}

// WakeUp requests an immediate sweep without waiting out the interval.
// Safe from any goroutine; a sweep already pending absorbs the request.
func (m *ConsensusMonitor) WakeUp() {
  select {
  case m.wake <- struct{}{}:
  default:
  }
}

func (m *ConsensusMonitor) Start(ctx context.Context) {
  go m.run(ctx)
}

func (m *ConsensusMonitor) run(ctx context.Context) {
  timer := time.NewTimer(m.cfg.SweepInterval)
  defer timer.Stop()

  consecutiveFailures := 0
  for {
    select {
    case <-ctx.Done():
      m.log.Info("Consensus monitor stopping", "reason", ctx.Err())
      return
    case <-m.wake:
    case <-timer.C:
    }

    next := m.cfg.SweepInterval
    if err := m.Sweep(ctx); err != nil {
      consecutiveFailures++
      next = retryBackoff(consecutiveFailures)
      if consecutiveFailures >= m.cfg.MaxConsecutiveFailures {
        m.log.Error("Consensus sweep failing repeatedly; proposal evaluation is stalled",
          "consecutive_failures", consecutiveFailures, "error", err)
      } else {
        m.log.Warn("Consensus sweep failed; backing off",
          "consecutive_failures", consecutiveFailures, "retry_in", next, "error", err)
      }
    } else {
      consecutiveFailures = 0
    }

    if !timer.Stop() {
      select {
      case <-timer.C:
      default:
      }
    }
    timer.Reset(next)
  }
}

func retryBackoff(consecutiveFailures int) time.Duration {
  backoff := evalRetryBackoff
  for i := 1; i < consecutiveFailures; i++ {
    backoff *= 2
    if backoff >= evalRetryBackoffMax {
      return evalRetryBackoffMax
    }
  }
  return backoff
}

// Sweep evaluates every active proposal once. Individual evaluation
// errors do not stop the rest of the sweep; the first one is returned so
// the run loop can back off.
func (m *ConsensusMonitor) Sweep(ctx context.Context) error {
  proposals, err := m.proposalRepo.ListByStatus(ctx, nil, []types.ProposalStatus{types.ProposalStatusActive})
  if err != nil {
    return fmt.Errorf("list active proposals: %w", err)
  }
  if len(proposals) == 0 {
    return nil
  }

  g, gctx := errgroup.WithContext(ctx)
  g.SetLimit(m.cfg.EvaluationParallelism)
  for _, proposal := range proposals {
    p := proposal
    g.Go(func() error {
      if eErr := m.EvaluateProposal(gctx, p); eErr != nil {
        m.log.Warn("Proposal evaluation failed", "proposal_id", p.ID, "error", eErr)
        return eErr
      }
      return nil
    })
  }
  return g.Wait()
}

// EvaluateProposal applies the resolution rule to one proposal:
//  1. quorum reached with at least one decisive vote and weighted
//     approval at or above threshold: claim approved for the requested
//     amount, proposal passed;
//  2. quorum reached with at least one decisive vote and approval below
//     threshold: claim rejected;
//  3. voting window over without quorum, or with a quorum made entirely
//     of abstentions: window extended by the grace period and
//     monitoring continues. An abstain-only quorum carries no decision,
//     so it must not reject the claim on an empty approval ratio.
func (m *ConsensusMonitor) EvaluateProposal(ctx context.Context, proposal *types.Proposal) error {
  if proposal == nil || proposal.Status != types.ProposalStatusActive {
    return nil
  }

  tally := TallyFromProposal(proposal)
  if proposal.ParticipantCount >= proposal.Quorum && tally.VotesFor+tally.VotesAgainst > 0 {
    approved := tally.ApprovalPercent >= proposal.ThresholdPercent
    return m.resolve(ctx, proposal, approved)
  }

  if !time.Now().Before(proposal.EndTime) {
    newEnd := proposal.EndTime.Add(m.cfg.GracePeriod)
    extended, err := m.proposalRepo.ExtendEndTime(ctx, nil, proposal.ID, newEnd)
    if err != nil {
      return fmt.Errorf("extend voting window: %w", err)
    }
    if extended {
      m.log.Info("No decisive quorum; voting window extended",
        "proposal_id", proposal.ID,
        "participant_count", proposal.ParticipantCount,
        "quorum", proposal.Quorum,
        "decisive_power", tally.VotesFor+tally.VotesAgainst,
        "new_end_time", newEnd,
      )
      m.notifier.Notify(ctx, sse.SSEMessage{
        Channel: sse.ProposalChannel(proposal.ID),
        Event:   sse.SSEEventVotingExtended,
        Data: map[string]interface{}{
          "proposal_id": proposal.ID,
          "end_time":    newEnd,
        },
      })
    }
  }
  return nil
}

func (m *ConsensusMonitor) resolve(ctx context.Context, proposal *types.Proposal, approved bool) error {
  claims, err := m.claimRepo.GetByIDs(ctx, nil, []uuid.UUID{proposal.ClaimID})
  if err != nil {
    return fmt.Errorf("load claim: %w", err)
  }
  if len(claims) == 0 || claims[0] == nil {
    return fmt.Errorf("claim %s not found for proposal %s", proposal.ClaimID, proposal.ID)
  }
  claim := claims[0]

  claimStatus := types.ClaimStatusRejected
  proposalStatus := types.ProposalStatusRejected
  var approvedAmount *float64
  if approved {
    claimStatus = types.ClaimStatusApproved
    proposalStatus = types.ProposalStatusPassed
    amount := claim.RequestedAmount
    approvedAmount = &amount
  }

  now := time.Now()
  applied := false
  if err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    var rErr error
    applied, rErr = m.claimRepo.ResolveIf(ctx, tx, claim.ID,
      []types.ClaimStatus{types.ClaimStatusPending, types.ClaimStatusUnderReview},
      claimStatus, approvedAmount, now)
    if rErr != nil {
      return rErr
    }
    // Flip the proposal even when the claim write lost the race: a
    // previous resolver may have died between the two writes.
    if _, pErr := m.proposalRepo.UpdateStatusIf(ctx, tx, proposal.ID, types.ProposalStatusActive, proposalStatus); pErr != nil {
      return pErr
    }
    return nil
  }); err != nil {
    return fmt.Errorf("apply resolution: %w", err)
  }

  if !applied {
    // Someone else resolved the claim; nothing further to do here.
    m.log.Debug("Claim already resolved; skipping", "claim_id", claim.ID, "proposal_id", proposal.ID)
    return nil
  }

  m.log.Info("Claim resolved by community vote",
    "claim_id", claim.ID,
    "proposal_id", proposal.ID,
    "approved", approved,
    "participant_count", proposal.ParticipantCount,
    "votes_for", proposal.VotesFor,
    "votes_against", proposal.VotesAgainst,
  )

  // Decision execution on the chain is best-effort and never rolled
  // back locally.
  result := m.ledgerGateway.ExecuteDecision(ctx, claim.ID, approved)
  if !result.Submitted {
    m.log.Warn("Decision not executed on ledger", "claim_id", claim.ID, "error", result.Err)
  }

  resolved := sse.SSEMessage{
    Channel: sse.ClaimChannel(claim.ClaimantID),
    Event:   sse.SSEEventClaimResolved,
    Data: map[string]interface{}{
      "claim_id":    claim.ID,
      "proposal_id": proposal.ID,
      "status":      claimStatus,
      "approved":    approved,
    },
  }
  m.notifier.Notify(ctx, resolved)
  resolved.Channel = sse.ProposalChannel(proposal.ID)
  m.notifier.Notify(ctx, resolved)
  return nil
}
