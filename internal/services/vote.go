package services

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/AjnasNB/guardchain-sub000/internal/ledger"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/repos"
  "github.com/AjnasNB/guardchain-sub000/internal/sse"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

type CastVoteInput struct {
  ProposalID uuid.UUID        `json:"proposal_id"`
  VoterID    uuid.UUID        `json:"voter_id"`
  Choice     types.VoteChoice `json:"choice"`
  // VotingPower zero means "use the voter's stored power"; negative
  // values are rejected.
  VotingPower   float64 `json:"voting_power,omitempty"`
  Justification string  `json:"justification,omitempty"`
}

type VoteService interface {
  // CastVote records one vote per (proposal, voter). The duplicate and
  // not-active failures leave no partial state behind: the vote row and
  // the tally increments commit in one transaction, and uniqueness is
  // backed by the composite index so concurrent duplicates cannot both
  // land.
  CastVote(ctx context.Context, input CastVoteInput) (*TallySnapshot, error)
}

type voteService struct {
  db            *gorm.DB
  log           *logger.Logger
  voteRepo      repos.VoteRepo
  proposalRepo  repos.ProposalRepo
  userRepo      repos.UserRepo
  ledgerGateway ledger.Gateway
  notifier      GovernanceNotifier
}

func NewVoteService(
  db *gorm.DB,
  baseLog *logger.Logger,
  voteRepo repos.VoteRepo,
  proposalRepo repos.ProposalRepo,
  userRepo repos.UserRepo,
  ledgerGateway ledger.Gateway,
  notifier GovernanceNotifier,
) VoteService {
  serviceLog := baseLog.With("service", "VoteService")
  return &voteService{
    db:            db,
    log:           serviceLog,
    voteRepo:      voteRepo,
    proposalRepo:  proposalRepo,
    userRepo:      userRepo,
    ledgerGateway: ledgerGateway,
    notifier:      notifier,
  }
}

func (vs *voteService) CastVote(ctx context.Context, input CastVoteInput) (*TallySnapshot, error) {
  if input.ProposalID == uuid.Nil || input.VoterID == uuid.Nil {
    return nil, fmt.Errorf("%w: proposal id and voter id are required", types.ErrInvalidVote)
  }
  if !input.Choice.Valid() {
    return nil, fmt.Errorf("%w: unknown choice %q", types.ErrInvalidVote, input.Choice)
  }
  if input.VotingPower < 0 {
    return nil, fmt.Errorf("%w: voting power must not be negative", types.ErrInvalidVote)
  }

  power := input.VotingPower
  if power == 0 {
    power = vs.voterPower(ctx, input.VoterID)
  }

  proposals, err := vs.proposalRepo.GetByIDs(ctx, nil, []uuid.UUID{input.ProposalID})
  if err != nil {
    return nil, fmt.Errorf("load proposal: %w", err)
  }
  if len(proposals) == 0 || proposals[0] == nil {
    return nil, types.ErrProposalNotFound
  }
  proposal := proposals[0]

  now := time.Now()
  if proposal.Status != types.ProposalStatusActive {
    return nil, types.ErrProposalNotActive
  }
  if now.Before(proposal.StartTime) || !now.Before(proposal.EndTime) {
    return nil, types.ErrProposalNotActive
  }

  // Fast path for the common duplicate: a clean error before any write.
  // The composite unique index remains the authoritative guard for two
  // casts racing past this check.
  existing, err := vs.voteRepo.GetByProposalAndVoter(ctx, nil, input.ProposalID, input.VoterID)
  if err != nil {
    return nil, fmt.Errorf("check existing vote: %w", err)
  }
  if existing != nil {
    return nil, types.ErrDuplicateVote
  }

  vote := &types.Vote{
    ID:            uuid.New(),
    ProposalID:    input.ProposalID,
    VoterID:       input.VoterID,
    Choice:        input.Choice,
    VotingPower:   power,
    Justification: strings.TrimSpace(input.Justification),
    CastAt:        now,
    CreatedAt:     now,
  }

  forDelta := 0.0
  againstDelta := 0.0
  switch input.Choice {
  case types.VoteChoiceFor:
    forDelta = power
  case types.VoteChoiceAgainst:
    againstDelta = power
  }

  if err := vs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, cErr := vs.voteRepo.Create(ctx, tx, []*types.Vote{vote}); cErr != nil {
      return cErr
    }
    return vs.proposalRepo.ApplyVote(ctx, tx, input.ProposalID, forDelta, againstDelta, power)
  }); err != nil {
    if errors.Is(err, types.ErrDuplicateVote) || errors.Is(err, types.ErrProposalNotActive) {
      return nil, err
    }
    vs.log.Error("CastVote failed", "proposal_id", input.ProposalID, "voter_id", input.VoterID, "error", err)
    return nil, fmt.Errorf("cast vote: %w", err)
  }

  // The vote is committed from here on; the mirror, the reload, and the
  // push are all best-effort and none of them can fail the cast.
  result := vs.ledgerGateway.CastVoteOnChain(ctx, vote)
  if !result.Submitted {
    vs.log.Warn("Vote not mirrored on ledger; continuing in degraded mode",
      "vote_id", vote.ID, "error", result.Err)
  }

  var snapshot TallySnapshot
  updated, err := vs.proposalRepo.GetByIDs(ctx, nil, []uuid.UUID{input.ProposalID})
  if err != nil || len(updated) == 0 || updated[0] == nil {
    vs.log.Warn("Failed to reload tally after cast", "proposal_id", input.ProposalID, "error", err)
    proposal.VotesFor += forDelta
    proposal.VotesAgainst += againstDelta
    proposal.TotalVotingPower += power
    proposal.ParticipantCount++
    snapshot = TallyFromProposal(proposal)
  } else {
    snapshot = TallyFromProposal(updated[0])
  }

  vs.notifier.Notify(ctx, sse.SSEMessage{
    Channel: sse.ProposalChannel(input.ProposalID),
    Event:   sse.SSEEventTallyUpdated,
    Data: map[string]interface{}{
      "proposal_id": input.ProposalID,
      "tally":       snapshot,
    },
  })

  return &snapshot, nil
}

func (vs *voteService) voterPower(ctx context.Context, voterID uuid.UUID) float64 {
  users, err := vs.userRepo.GetByIDs(ctx, nil, []uuid.UUID{voterID})
  if err != nil || len(users) == 0 || users[0] == nil || users[0].VotingPower <= 0 {
    return 1
  }
  return users[0].VotingPower
}
