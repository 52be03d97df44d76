package services

import (
  "context"
  "fmt"
  "sync"
  "testing"
  "time"

  "github.com/google/uuid"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"

  "github.com/AjnasNB/guardchain-sub000/internal/ledger"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/repos"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

// fakeGateway records ledger calls and can be flipped into failure mode
// to exercise the degraded paths.
type fakeGateway struct {
  mu         sync.Mutex
  fail       bool
  registered []uuid.UUID
  voteCasts  []uuid.UUID
  executions []uuid.UUID
}

func (g *fakeGateway) RegisterClaim(ctx context.Context, claim *types.Claim) ledger.Result {
  g.mu.Lock()
  defer g.mu.Unlock()
  if g.fail {
    return ledger.Result{Err: types.ErrLedgerUnavailable}
  }
  g.registered = append(g.registered, claim.ID)
  return ledger.Result{Submitted: true, TxHash: "0xtest"}
}

func (g *fakeGateway) CastVoteOnChain(ctx context.Context, vote *types.Vote) ledger.Result {
  g.mu.Lock()
  defer g.mu.Unlock()
  if g.fail {
    return ledger.Result{Err: types.ErrLedgerUnavailable}
  }
  g.voteCasts = append(g.voteCasts, vote.ID)
  return ledger.Result{Submitted: true, TxHash: "0xtest"}
}

func (g *fakeGateway) ExecuteDecision(ctx context.Context, claimID uuid.UUID, approved bool) ledger.Result {
  g.mu.Lock()
  defer g.mu.Unlock()
  if g.fail {
    return ledger.Result{Err: types.ErrLedgerUnavailable}
  }
  g.executions = append(g.executions, claimID)
  return ledger.Result{Submitted: true, TxHash: "0xtest"}
}

func (g *fakeGateway) executionCount() int {
  g.mu.Lock()
  defer g.mu.Unlock()
  return len(g.executions)
}

func (g *fakeGateway) voteCastCount() int {
  g.mu.Lock()
  defer g.mu.Unlock()
  return len(g.voteCasts)
}

type testEnv struct {
  db      *gorm.DB
  log     *logger.Logger
  gateway *fakeGateway
  cfg     GovernanceConfig

  userRepo     repos.UserRepo
  policyRepo   repos.PolicyRepo
  claimRepo    repos.ClaimRepo
  proposalRepo repos.ProposalRepo
  voteRepo     repos.VoteRepo

  claims    ClaimService
  proposals ProposalService
  votes     VoteService
  monitor   *ConsensusMonitor
}

func newTestEnv(t *testing.T) *testEnv {
  t.Helper()

  dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
  gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
  if err != nil {
    t.Fatalf("open sqlite: %v", err)
  }
  sqlDB, err := gdb.DB()
  if err != nil {
    t.Fatalf("raw db: %v", err)
  }
  sqlDB.SetMaxOpenConns(1)
  if err := gdb.AutoMigrate(&types.User{}, &types.UserToken{}, &types.Policy{}, &types.Claim{}, &types.Proposal{}, &types.Vote{}); err != nil {
    t.Fatalf("migrate: %v", err)
  }

  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("init logger: %v", err)
  }

  cfg := GovernanceConfig{
    VotingPeriod:           time.Hour,
    Quorum:                 3,
    ThresholdPercent:       50,
    GracePeriod:            24 * time.Hour,
    SweepInterval:          time.Minute,
    EvaluationParallelism:  2,
    MaxConsecutiveFailures: 5,
  }

  env := &testEnv{
    db:           gdb,
    log:          log,
    gateway:      &fakeGateway{},
    cfg:          cfg,
    userRepo:     repos.NewUserRepo(gdb, log),
    policyRepo:   repos.NewPolicyRepo(gdb, log),
    claimRepo:    repos.NewClaimRepo(gdb, log),
    proposalRepo: repos.NewProposalRepo(gdb, log),
    voteRepo:     repos.NewVoteRepo(gdb, log),
  }

  notifier := NoopNotifier()
  env.proposals = NewProposalService(gdb, log, env.proposalRepo, env.voteRepo, cfg)
  env.monitor = NewConsensusMonitor(gdb, log, env.claimRepo, env.proposalRepo, env.gateway, notifier, cfg)
  env.claims = NewClaimService(gdb, log, env.claimRepo, env.policyRepo, env.proposalRepo, env.proposals, env.gateway, NewFraudScreener(log), env.monitor, notifier)
  env.votes = NewVoteService(gdb, log, env.voteRepo, env.proposalRepo, env.userRepo, env.gateway, notifier)
  return env
}

func (e *testEnv) createUser(t *testing.T, votingPower float64) *types.User {
  t.Helper()
  now := time.Now()
  user := &types.User{
    ID:          uuid.New(),
    Email:       fmt.Sprintf("%s@example.com", uuid.NewString()),
    Password:    "hashed",
    FirstName:   "Test",
    LastName:    "Member",
    VotingPower: votingPower,
    CreatedAt:   now,
    UpdatedAt:   now,
  }
  if _, err := e.userRepo.Create(context.Background(), nil, []*types.User{user}); err != nil {
    t.Fatalf("create user: %v", err)
  }
  return user
}

func (e *testEnv) createPolicy(t *testing.T, holderID uuid.UUID, coverage float64, status types.PolicyStatus) *types.Policy {
  t.Helper()
  now := time.Now()
  policy := &types.Policy{
    ID:             uuid.New(),
    HolderID:       holderID,
    PolicyNumber:   fmt.Sprintf("POL-%s", uuid.NewString()),
    PolicyType:     types.PolicyTypeHealth,
    CoverageAmount: coverage,
    PremiumAmount:  coverage / 100,
    Status:         status,
    StartDate:      now.AddDate(0, -1, 0),
    EndDate:        now.AddDate(1, 0, 0),
    CreatedAt:      now,
    UpdatedAt:      now,
  }
  if _, err := e.policyRepo.Create(context.Background(), nil, []*types.Policy{policy}); err != nil {
    t.Fatalf("create policy: %v", err)
  }
  return policy
}

// submitClaim runs the full intake path and returns the created claim
// with its open proposal.
func (e *testEnv) submitClaim(t *testing.T, claimantID, policyID uuid.UUID, amount float64) *SubmitClaimResult {
  t.Helper()
  result, err := e.claims.SubmitClaim(context.Background(), SubmitClaimInput{
    PolicyID:        policyID,
    ClaimantID:      claimantID,
    RequestedAmount: amount,
    Description:     "Hospital invoice for a broken arm treated on the 14th",
    EvidenceRefs:    []string{"doc://invoice-1"},
  })
  if err != nil {
    t.Fatalf("submit claim: %v", err)
  }
  return result
}

func (e *testEnv) castVote(t *testing.T, proposalID, voterID uuid.UUID, choice types.VoteChoice, power float64) *TallySnapshot {
  t.Helper()
  snapshot, err := e.votes.CastVote(context.Background(), CastVoteInput{
    ProposalID:  proposalID,
    VoterID:     voterID,
    Choice:      choice,
    VotingPower: power,
  })
  if err != nil {
    t.Fatalf("cast vote: %v", err)
  }
  return snapshot
}

func (e *testEnv) reloadProposal(t *testing.T, proposalID uuid.UUID) *types.Proposal {
  t.Helper()
  proposals, err := e.proposalRepo.GetByIDs(context.Background(), nil, []uuid.UUID{proposalID})
  if err != nil || len(proposals) == 0 {
    t.Fatalf("reload proposal: %v", err)
  }
  return proposals[0]
}

func (e *testEnv) reloadClaim(t *testing.T, claimID uuid.UUID) *types.Claim {
  t.Helper()
  claims, err := e.claimRepo.GetByIDs(context.Background(), nil, []uuid.UUID{claimID})
  if err != nil || len(claims) == 0 {
    t.Fatalf("reload claim: %v", err)
  }
  return claims[0]
}
