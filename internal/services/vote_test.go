package services

import (
  "context"
  "errors"
  "sync"
  "testing"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/AjnasNB/guardchain-sub000/internal/repos"
  "github.com/AjnasNB/guardchain-sub000/internal/sse"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

func TestCastVoteWeightedTally(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceFor, 2)
  env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceAgainst, 1)
  snapshot := env.castVote(t, submitted.ProposalID, env.createUser(t, 1).ID, types.VoteChoiceAbstain, 1)

  if snapshot.VotesFor != 2 {
    t.Errorf("VotesFor = %v, want 2", snapshot.VotesFor)
  }
  if snapshot.VotesAgainst != 1 {
    t.Errorf("VotesAgainst = %v, want 1", snapshot.VotesAgainst)
  }
  if snapshot.TotalVotingPower != 4 {
    t.Errorf("TotalVotingPower = %v, want 4", snapshot.TotalVotingPower)
  }
  if snapshot.ParticipantCount != 3 {
    t.Errorf("ParticipantCount = %v, want 3", snapshot.ParticipantCount)
  }
  // Abstentions count toward participation, not toward approval.
  if want := 2.0 / 3.0 * 100; snapshot.ApprovalPercent < want-0.001 || snapshot.ApprovalPercent > want+0.001 {
    t.Errorf("ApprovalPercent = %v, want %v", snapshot.ApprovalPercent, want)
  }
}

func TestCastVoteDefaultsToStoredVotingPower(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  heavy := env.createUser(t, 3.5)
  snapshot := env.castVote(t, submitted.ProposalID, heavy.ID, types.VoteChoiceFor, 0)

  if snapshot.VotesFor != 3.5 {
    t.Errorf("VotesFor = %v, want stored voting power 3.5", snapshot.VotesFor)
  }
}

func TestCastVoteDuplicateLeavesTallyUnchanged(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  voter := env.createUser(t, 1)
  env.castVote(t, submitted.ProposalID, voter.ID, types.VoteChoiceFor, 1)

  _, err := env.votes.CastVote(context.Background(), CastVoteInput{
    ProposalID:  submitted.ProposalID,
    VoterID:     voter.ID,
    Choice:      types.VoteChoiceAgainst,
    VotingPower: 1,
  })
  if !errors.Is(err, types.ErrDuplicateVote) {
    t.Fatalf("second cast: got %v, want ErrDuplicateVote", err)
  }

  proposal := env.reloadProposal(t, submitted.ProposalID)
  if proposal.VotesFor != 1 || proposal.VotesAgainst != 0 || proposal.ParticipantCount != 1 {
    t.Errorf("tally changed after rejected duplicate: for=%v against=%v participants=%d",
      proposal.VotesFor, proposal.VotesAgainst, proposal.ParticipantCount)
  }
}

func TestCastVoteRejectsClosedProposal(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  if _, err := env.proposalRepo.UpdateStatusIf(context.Background(), nil, submitted.ProposalID, types.ProposalStatusActive, types.ProposalStatusPassed); err != nil {
    t.Fatalf("close proposal: %v", err)
  }

  _, err := env.votes.CastVote(context.Background(), CastVoteInput{
    ProposalID:  submitted.ProposalID,
    VoterID:     env.createUser(t, 1).ID,
    Choice:      types.VoteChoiceFor,
    VotingPower: 1,
  })
  if !errors.Is(err, types.ErrProposalNotActive) {
    t.Fatalf("cast on closed proposal: got %v, want ErrProposalNotActive", err)
  }
}

func TestCastVoteRejectsExpiredWindow(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  // Pull the window into the past; the row stays active until a sweep.
  past := time.Now().Add(-time.Minute)
  if err := env.db.Model(&types.Proposal{}).Where("id = ?", submitted.ProposalID).Update("end_time", past).Error; err != nil {
    t.Fatalf("expire window: %v", err)
  }

  _, err := env.votes.CastVote(context.Background(), CastVoteInput{
    ProposalID:  submitted.ProposalID,
    VoterID:     env.createUser(t, 1).ID,
    Choice:      types.VoteChoiceFor,
    VotingPower: 1,
  })
  if !errors.Is(err, types.ErrProposalNotActive) {
    t.Fatalf("cast after end time: got %v, want ErrProposalNotActive", err)
  }
}

func TestCastVoteValidation(t *testing.T) {
  env := newTestEnv(t)

  tests := []struct {
    name  string
    input CastVoteInput
  }{
    {"missing voter", CastVoteInput{ProposalID: uuid.New(), Choice: types.VoteChoiceFor}},
    {"missing proposal", CastVoteInput{VoterID: uuid.New(), Choice: types.VoteChoiceFor}},
    {"unknown choice", CastVoteInput{ProposalID: uuid.New(), VoterID: uuid.New(), Choice: "maybe"}},
    {"negative power", CastVoteInput{ProposalID: uuid.New(), VoterID: uuid.New(), Choice: types.VoteChoiceFor, VotingPower: -1}},
  }
  for _, tt := range tests {
    t.Run(tt.name, func(t *testing.T) {
      if _, err := env.votes.CastVote(context.Background(), tt.input); !errors.Is(err, types.ErrInvalidVote) {
        t.Errorf("got %v, want ErrInvalidVote", err)
      }
    })
  }
}

func TestCastVoteConcurrentVotersAllCounted(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  const voters = 6
  var wg sync.WaitGroup
  errs := make([]error, voters)
  voterIDs := make([]uuid.UUID, voters)
  for i := 0; i < voters; i++ {
    voterIDs[i] = env.createUser(t, 1).ID
  }
  for i := 0; i < voters; i++ {
    wg.Add(1)
    go func(i int) {
      defer wg.Done()
      _, errs[i] = env.votes.CastVote(context.Background(), CastVoteInput{
        ProposalID:  submitted.ProposalID,
        VoterID:     voterIDs[i],
        Choice:      types.VoteChoiceFor,
        VotingPower: 1,
      })
    }(i)
  }
  wg.Wait()

  for i, err := range errs {
    if err != nil {
      t.Fatalf("voter %d: %v", i, err)
    }
  }

  proposal := env.reloadProposal(t, submitted.ProposalID)
  if proposal.ParticipantCount != voters {
    t.Errorf("ParticipantCount = %d, want %d", proposal.ParticipantCount, voters)
  }
  if proposal.VotesFor != float64(voters) {
    t.Errorf("VotesFor = %v, want %d; a concurrent cast was lost", proposal.VotesFor, voters)
  }
}

// staleReloadProposalRepo serves the first lookup normally and fails
// every one after it, so a cast commits but its tally reload does not.
type staleReloadProposalRepo struct {
  repos.ProposalRepo
  mu    sync.Mutex
  calls int
}

func (r *staleReloadProposalRepo) GetByIDs(ctx context.Context, tx *gorm.DB, proposalIDs []uuid.UUID) ([]*types.Proposal, error) {
  r.mu.Lock()
  r.calls++
  call := r.calls
  r.mu.Unlock()
  if call > 1 {
    return nil, errors.New("connection reset by peer")
  }
  return r.ProposalRepo.GetByIDs(ctx, tx, proposalIDs)
}

type recordingNotifier struct {
  mu   sync.Mutex
  msgs []sse.SSEMessage
}

func (n *recordingNotifier) Notify(ctx context.Context, msg sse.SSEMessage) {
  n.mu.Lock()
  defer n.mu.Unlock()
  n.msgs = append(n.msgs, msg)
}

func TestCastVoteReloadFailureStillMirrorsAndNotifies(t *testing.T) {
  env := newTestEnv(t)
  claimant := env.createUser(t, 1)
  policy := env.createPolicy(t, claimant.ID, 10000, types.PolicyStatusActive)
  submitted := env.submitClaim(t, claimant.ID, policy.ID, 2500)

  flaky := &staleReloadProposalRepo{ProposalRepo: env.proposalRepo}
  rec := &recordingNotifier{}
  votes := NewVoteService(env.db, env.log, env.voteRepo, flaky, env.userRepo, env.gateway, rec)

  voter := env.createUser(t, 2)
  before := env.gateway.voteCastCount()
  snapshot, err := votes.CastVote(context.Background(), CastVoteInput{
    ProposalID:  submitted.ProposalID,
    VoterID:     voter.ID,
    Choice:      types.VoteChoiceFor,
    VotingPower: 2,
  })
  if err != nil {
    t.Fatalf("cast vote: %v", err)
  }
  if snapshot.VotesFor != 2 || snapshot.ParticipantCount != 1 {
    t.Errorf("snapshot for=%v participants=%d, want locally derived 2 and 1",
      snapshot.VotesFor, snapshot.ParticipantCount)
  }
  if got := env.gateway.voteCastCount(); got != before+1 {
    t.Errorf("ledger vote mirrors = %d, want %d", got, before+1)
  }

  rec.mu.Lock()
  defer rec.mu.Unlock()
  if len(rec.msgs) != 1 {
    t.Fatalf("notifications = %d, want exactly one tally update", len(rec.msgs))
  }
  msg := rec.msgs[0]
  if msg.Event != sse.SSEEventTallyUpdated {
    t.Errorf("event = %s, want %s", msg.Event, sse.SSEEventTallyUpdated)
  }
  if msg.Channel != sse.ProposalChannel(submitted.ProposalID) {
    t.Errorf("channel = %s, want %s", msg.Channel, sse.ProposalChannel(submitted.ProposalID))
  }
}
