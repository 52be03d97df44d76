package repos

import (
  "context"
  "errors"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

type VoteRepo interface {
  Create(ctx context.Context, tx *gorm.DB, votes []*types.Vote) ([]*types.Vote, error)
  GetByProposalAndVoter(ctx context.Context, tx *gorm.DB, proposalID, voterID uuid.UUID) (*types.Vote, error)
  GetByProposalIDs(ctx context.Context, tx *gorm.DB, proposalIDs []uuid.UUID) ([]*types.Vote, error)
  CountByProposalID(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (int64, error)
}

type voteRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewVoteRepo(db *gorm.DB, baseLog *logger.Logger) VoteRepo {
  repoLog := baseLog.With("repo", "VoteRepo")
  return &voteRepo{db: db, log: repoLog}
}

func (vr *voteRepo) Create(ctx context.Context, tx *gorm.DB, votes []*types.Vote) ([]*types.Vote, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  if len(votes) == 0 {
    return []*types.Vote{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&votes).Error; err != nil {
    if errors.Is(err, gorm.ErrDuplicatedKey) {
      return nil, types.ErrDuplicateVote
    }
    return nil, err
  }

  return votes, nil
}

func (vr *voteRepo) GetByProposalAndVoter(ctx context.Context, tx *gorm.DB, proposalID, voterID uuid.UUID) (*types.Vote, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  var vote types.Vote
  err := transaction.WithContext(ctx).
    Where("proposal_id = ? AND voter_id = ?", proposalID, voterID).
    First(&vote).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &vote, nil
}

func (vr *voteRepo) GetByProposalIDs(ctx context.Context, tx *gorm.DB, proposalIDs []uuid.UUID) ([]*types.Vote, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  var results []*types.Vote

  if len(proposalIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("proposal_id IN ?", proposalIDs).
    Order("cast_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (vr *voteRepo) CountByProposalID(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = vr.db
  }

  var count int64

  if err := transaction.WithContext(ctx).
    Model(&types.Vote{}).
    Where("proposal_id = ?", proposalID).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}
