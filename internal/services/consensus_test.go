package services

import (
  "context"
  "testing"
  "time"

  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

func TestEvaluateApprovesAtQuorumAndThreshold(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceFor, 1)
  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceFor, 1)
  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceAgainst, 1)

  if err := env.monitor.Sweep(context.Background()); err != nil {
    t.Fatalf("sweep: %v", err)
  }

  claim := env.reloadClaim(t, submitted.Claim.ID)
  if claim.Status != types.ClaimStatusApproved {
    t.Fatalf("claim status = %s, want approved", claim.Status)
  }
  if claim.ApprovedAmount == nil || *claim.ApprovedAmount != 2500 {
    t.Errorf("ApprovedAmount = %v, want 2500", claim.ApprovedAmount)
  }
  if claim.ResolvedAt == nil {
    t.Error("ResolvedAt not set on approved claim")
  }

  proposal := env.reloadProposal(t, submitted.ProposalID)
  if proposal.Status != types.ProposalStatusPassed {
    t.Errorf("proposal status = %s, want passed", proposal.Status)
  }
  if env.gateway.executionCount() != 1 {
    t.Errorf("ExecuteDecision calls = %d, want 1", env.gateway.executionCount())
  }
}

func TestEvaluateRejectsBelowThreshold(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceFor, 1)
  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceAgainst, 1)
  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceAgainst, 1)

  if err := env.monitor.Sweep(context.Background()); err != nil {
    t.Fatalf("sweep: %v", err)
  }

  claim := env.reloadClaim(t, submitted.Claim.ID)
  if claim.Status != types.ClaimStatusRejected {
    t.Fatalf("claim status = %s, want rejected", claim.Status)
  }
  if claim.ApprovedAmount != nil {
    t.Errorf("ApprovedAmount = %v, want nil on rejection", *claim.ApprovedAmount)
  }
  proposal := env.reloadProposal(t, submitted.ProposalID)
  if proposal.Status != types.ProposalStatusRejected {
    t.Errorf("proposal status = %s, want rejected", proposal.Status)
  }
}

func TestEvaluateWeightedApprovalUsesPowerNotHeadcount(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  // Two heads against, one heavy head for: weighted approval 60%.
  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceFor, 3)
  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceAgainst, 1)
  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceAgainst, 1)

  if err := env.monitor.Sweep(context.Background()); err != nil {
    t.Fatalf("sweep: %v", err)
  }

  claim := env.reloadClaim(t, submitted.Claim.ID)
  if claim.Status != types.ClaimStatusApproved {
    t.Fatalf("claim status = %s, want approved by weight", claim.Status)
  }
}

func TestEvaluateExtendsWindowWhenQuorumMissed(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceFor, 1)
  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceFor, 1)

  originalEnd := time.Now().Add(-time.Minute)
  if err := env.db.Model(&types.Proposal{}).Where("id = ?", submitted.ProposalID).Update("end_time", originalEnd).Error; err != nil {
    t.Fatalf("expire window: %v", err)
  }

  if err := env.monitor.Sweep(context.Background()); err != nil {
    t.Fatalf("sweep: %v", err)
  }

  proposal := env.reloadProposal(t, submitted.ProposalID)
  if proposal.Status != types.ProposalStatusActive {
    t.Fatalf("proposal status = %s, want still active", proposal.Status)
  }
  if proposal.GraceExtensions != 1 {
    t.Errorf("GraceExtensions = %d, want 1", proposal.GraceExtensions)
  }
  wantEnd := originalEnd.Add(env.cfg.GracePeriod)
  if diff := proposal.EndTime.Sub(wantEnd); diff < -time.Second || diff > time.Second {
    t.Errorf("EndTime = %v, want about %v", proposal.EndTime, wantEnd)
  }

  claim := env.reloadClaim(t, submitted.Claim.ID)
  if claim.Status != types.ClaimStatusPending {
    t.Errorf("claim status = %s, want still pending", claim.Status)
  }
}

func TestAbstainOnlyQuorumDoesNotResolve(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  for i := 0; i < 3; i++ {
    env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceAbstain, 1)
  }

  if err := env.monitor.Sweep(context.Background()); err != nil {
    t.Fatalf("sweep: %v", err)
  }

  // Quorum made entirely of abstentions carries no decision.
  claim := env.reloadClaim(t, submitted.Claim.ID)
  if claim.Status != types.ClaimStatusPending {
    t.Fatalf("claim status = %s, want still pending after abstain-only quorum", claim.Status)
  }
  proposal := env.reloadProposal(t, submitted.ProposalID)
  if proposal.Status != types.ProposalStatusActive {
    t.Fatalf("proposal status = %s, want still active", proposal.Status)
  }

  // At the window end the proposal is grace-extended, not rejected.
  past := time.Now().Add(-time.Minute)
  if err := env.db.Model(&types.Proposal{}).Where("id = ?", submitted.ProposalID).Update("end_time", past).Error; err != nil {
    t.Fatalf("expire window: %v", err)
  }
  if err := env.monitor.Sweep(context.Background()); err != nil {
    t.Fatalf("sweep after window end: %v", err)
  }
  proposal = env.reloadProposal(t, submitted.ProposalID)
  if proposal.Status != types.ProposalStatusActive || proposal.GraceExtensions != 1 {
    t.Errorf("proposal status=%s extensions=%d, want active with one extension", proposal.Status, proposal.GraceExtensions)
  }

  // One decisive vote breaks the stalemate on the next sweep.
  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceFor, 1)
  if err := env.monitor.Sweep(context.Background()); err != nil {
    t.Fatalf("final sweep: %v", err)
  }
  claim = env.reloadClaim(t, submitted.Claim.ID)
  if claim.Status != types.ClaimStatusApproved {
    t.Errorf("claim status = %s, want approved once a decisive vote exists", claim.Status)
  }
}

func TestResolutionIsIdempotent(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  for i := 0; i < 3; i++ {
    env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceFor, 1)
  }

  // A stale snapshot of the proposal, as a second overlapping sweep
  // would hold it.
  stale := env.reloadProposal(t, submitted.ProposalID)

  if err := env.monitor.Sweep(context.Background()); err != nil {
    t.Fatalf("first sweep: %v", err)
  }
  if err := env.monitor.EvaluateProposal(context.Background(), stale); err != nil {
    t.Fatalf("stale re-evaluation: %v", err)
  }
  if err := env.monitor.Sweep(context.Background()); err != nil {
    t.Fatalf("second sweep: %v", err)
  }

  claim := env.reloadClaim(t, submitted.Claim.ID)
  if claim.Status != types.ClaimStatusApproved {
    t.Fatalf("claim status = %s, want approved", claim.Status)
  }
  if env.gateway.executionCount() != 1 {
    t.Errorf("ExecuteDecision calls = %d, want exactly 1", env.gateway.executionCount())
  }
}

func TestResolutionSurvivesLedgerOutage(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  for i := 0; i < 3; i++ {
    env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceFor, 1)
  }

  env.gateway.fail = true
  if err := env.monitor.Sweep(context.Background()); err != nil {
    t.Fatalf("sweep with ledger down: %v", err)
  }

  claim := env.reloadClaim(t, submitted.Claim.ID)
  if claim.Status != types.ClaimStatusApproved {
    t.Errorf("claim status = %s, want approved despite ledger outage", claim.Status)
  }
}

func TestRetryBackoff(t *testing.T) {
  tests := []struct {
    failures int
    want     time.Duration
  }{
    {1, 30 * time.Second},
    {2, 60 * time.Second},
    {3, 60 * time.Second},
    {10, 60 * time.Second},
  }
  for _, tt := range tests {
    if got := retryBackoff(tt.failures); got != tt.want {
      t.Errorf("retryBackoff(%d) = %v, want %v", tt.failures, got, tt.want)
    }
  }
}
