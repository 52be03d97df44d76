package services

import (
  "context"
  "errors"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/repos"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

// TallySnapshot is the read model returned to voters after a cast and on
// proposal queries. ApprovalPercent is the weighted for-share of cast
// votes; ParticipantCount is distinct voters and is what quorum checks.
type TallySnapshot struct {
  VotesFor         float64 `json:"votes_for"`
  VotesAgainst     float64 `json:"votes_against"`
  TotalVotingPower float64 `json:"total_voting_power"`
  ParticipantCount int     `json:"participant_count"`
  ApprovalPercent  float64 `json:"approval_percent"`
}

func TallyFromProposal(p *types.Proposal) TallySnapshot {
  snapshot := TallySnapshot{
    VotesFor:         p.VotesFor,
    VotesAgainst:     p.VotesAgainst,
    TotalVotingPower: p.TotalVotingPower,
    ParticipantCount: p.ParticipantCount,
  }
  decisive := p.VotesFor + p.VotesAgainst
  if decisive > 0 {
    snapshot.ApprovalPercent = p.VotesFor / decisive * 100
  }
  return snapshot
}

type ProposalDetail struct {
  Proposal *types.Proposal `json:"proposal"`
  Tally    TallySnapshot   `json:"tally"`
  Votes    []*types.Vote   `json:"votes"`
}

type ProposalService interface {
  // CreateForClaim opens the single voting proposal for a claim. Calling
  // it again while one is active returns the existing proposal.
  CreateForClaim(ctx context.Context, tx *gorm.DB, claim *types.Claim) (*types.Proposal, error)
  GetDetail(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (*ProposalDetail, error)
  ListByStatus(ctx context.Context, tx *gorm.DB, status types.ProposalStatus) ([]*types.Proposal, error)
}

type proposalService struct {
  db           *gorm.DB
  log          *logger.Logger
  proposalRepo repos.ProposalRepo
  voteRepo     repos.VoteRepo
  cfg          GovernanceConfig
}

func NewProposalService(
  db *gorm.DB,
  baseLog *logger.Logger,
  proposalRepo repos.ProposalRepo,
  voteRepo repos.VoteRepo,
  cfg GovernanceConfig,
) ProposalService {
  serviceLog := baseLog.With("service", "ProposalService")
  return &proposalService{
    db:           db,
    log:          serviceLog,
    proposalRepo: proposalRepo,
    voteRepo:     voteRepo,
    cfg:          cfg,
  }
}

func (ps *proposalService) CreateForClaim(ctx context.Context, tx *gorm.DB, claim *types.Claim) (*types.Proposal, error) {
  transaction := tx
  if transaction == nil {
    transaction = ps.db
  }

  existing, err := ps.proposalRepo.GetActiveByClaimID(ctx, transaction, claim.ID)
  if err != nil {
    return nil, fmt.Errorf("check active proposal: %w", err)
  }
  if existing != nil {
    ps.log.Debug("Active proposal already exists for claim", "claim_id", claim.ID, "proposal_id", existing.ID)
    return existing, nil
  }

  now := time.Now()
  proposal := &types.Proposal{
    ID:               uuid.New(),
    ClaimID:          claim.ID,
    Title:            fmt.Sprintf("Claim payout review %s", claim.ID),
    Description:      claim.Description,
    Status:           types.ProposalStatusActive,
    StartTime:        now,
    EndTime:          now.Add(ps.cfg.VotingPeriod),
    Quorum:           ps.cfg.Quorum,
    ThresholdPercent: ps.cfg.ThresholdPercent,
    CreatedAt:        now,
    UpdatedAt:        now,
  }

  if _, err := ps.proposalRepo.Create(ctx, transaction, []*types.Proposal{proposal}); err != nil {
    // A concurrent call can beat us to the partial unique index on
    // (claim_id) WHERE active; treat that as the idempotent path.
    if errors.Is(err, gorm.ErrDuplicatedKey) {
      raced, rErr := ps.proposalRepo.GetActiveByClaimID(ctx, transaction, claim.ID)
      if rErr != nil {
        return nil, fmt.Errorf("reload raced proposal: %w", rErr)
      }
      if raced != nil {
        return raced, nil
      }
    }
    ps.log.Error("CreateForClaim failed", "claim_id", claim.ID, "error", err)
    return nil, fmt.Errorf("create proposal: %w", err)
  }

  ps.log.Info("Voting proposal opened",
    "proposal_id", proposal.ID,
    "claim_id", claim.ID,
    "end_time", proposal.EndTime,
    "quorum", proposal.Quorum,
    "threshold_percent", proposal.ThresholdPercent,
  )
  return proposal, nil
}

func (ps *proposalService) GetDetail(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (*ProposalDetail, error) {
  transaction := tx
  if transaction == nil {
    transaction = ps.db
  }

  proposals, err := ps.proposalRepo.GetByIDs(ctx, transaction, []uuid.UUID{proposalID})
  if err != nil {
    return nil, fmt.Errorf("load proposal: %w", err)
  }
  if len(proposals) == 0 || proposals[0] == nil {
    return nil, types.ErrProposalNotFound
  }
  proposal := proposals[0]

  votes, err := ps.voteRepo.GetByProposalIDs(ctx, transaction, []uuid.UUID{proposalID})
  if err != nil {
    return nil, fmt.Errorf("load votes: %w", err)
  }

  return &ProposalDetail{
    Proposal: proposal,
    Tally:    TallyFromProposal(proposal),
    Votes:    votes,
  }, nil
}

func (ps *proposalService) ListByStatus(ctx context.Context, tx *gorm.DB, status types.ProposalStatus) ([]*types.Proposal, error) {
  transaction := tx
  if transaction == nil {
    transaction = ps.db
  }
  return ps.proposalRepo.ListByStatus(ctx, transaction, []types.ProposalStatus{status})
}
