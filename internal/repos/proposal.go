package repos

import (
  "context"
  "errors"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

type ProposalRepo interface {
  Create(ctx context.Context, tx *gorm.DB, proposals []*types.Proposal) ([]*types.Proposal, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, proposalIDs []uuid.UUID) ([]*types.Proposal, error)
  GetActiveByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*types.Proposal, error)
  GetByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) ([]*types.Proposal, error)
  ListByStatus(ctx context.Context, tx *gorm.DB, statuses []types.ProposalStatus) ([]*types.Proposal, error)
  // ApplyVote folds one cast vote into the running tally with in-database
  // increments, so concurrent casts on the same proposal never lose an
  // update. The row is touched only while the proposal is active.
  ApplyVote(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, forDelta, againstDelta, powerDelta float64) error
  // UpdateStatusIf flips status only when the current value matches,
  // reporting whether this call performed the flip.
  UpdateStatusIf(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, from, to types.ProposalStatus) (bool, error)
  ExtendEndTime(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, newEndTime time.Time) (bool, error)
}

type proposalRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewProposalRepo(db *gorm.DB, baseLog *logger.Logger) ProposalRepo {
  repoLog := baseLog.With("repo", "ProposalRepo")
  return &proposalRepo{db: db, log: repoLog}
}

func (pr *proposalRepo) Create(ctx context.Context, tx *gorm.DB, proposals []*types.Proposal) ([]*types.Proposal, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  if len(proposals) == 0 {
    return []*types.Proposal{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&proposals).Error; err != nil {
    return nil, err
  }

  return proposals, nil
}

func (pr *proposalRepo) GetByIDs(ctx context.Context, tx *gorm.DB, proposalIDs []uuid.UUID) ([]*types.Proposal, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  var results []*types.Proposal

  if len(proposalIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", proposalIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (pr *proposalRepo) GetActiveByClaimID(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*types.Proposal, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  var proposal types.Proposal
  err := transaction.WithContext(ctx).
    Where("claim_id = ? AND status = ?", claimID, types.ProposalStatusActive).
    First(&proposal).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &proposal, nil
}

func (pr *proposalRepo) GetByClaimIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) ([]*types.Proposal, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  var results []*types.Proposal

  if len(claimIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("claim_id IN ?", claimIDs).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (pr *proposalRepo) ListByStatus(ctx context.Context, tx *gorm.DB, statuses []types.ProposalStatus) ([]*types.Proposal, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  var results []*types.Proposal

  if len(statuses) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("status IN ?", statuses).
    Order("end_time ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (pr *proposalRepo) ApplyVote(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, forDelta, againstDelta, powerDelta float64) error {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  res := transaction.WithContext(ctx).
    Model(&types.Proposal{}).
    Where("id = ? AND status = ?", proposalID, types.ProposalStatusActive).
    Updates(map[string]interface{}{
      "votes_for":          gorm.Expr("votes_for + ?", forDelta),
      "votes_against":      gorm.Expr("votes_against + ?", againstDelta),
      "total_voting_power": gorm.Expr("total_voting_power + ?", powerDelta),
      "participant_count":  gorm.Expr("participant_count + 1"),
      "updated_at":         time.Now(),
    })
  if res.Error != nil {
    return res.Error
  }
  if res.RowsAffected == 0 {
    return types.ErrProposalNotActive
  }
  return nil
}

func (pr *proposalRepo) UpdateStatusIf(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, from, to types.ProposalStatus) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  res := transaction.WithContext(ctx).
    Model(&types.Proposal{}).
    Where("id = ? AND status = ?", proposalID, from).
    Updates(map[string]interface{}{
      "status":     to,
      "updated_at": time.Now(),
    })
  if res.Error != nil {
    return false, res.Error
  }
  return res.RowsAffected == 1, nil
}

func (pr *proposalRepo) ExtendEndTime(ctx context.Context, tx *gorm.DB, proposalID uuid.UUID, newEndTime time.Time) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  res := transaction.WithContext(ctx).
    Model(&types.Proposal{}).
    Where("id = ? AND status = ? AND end_time < ?", proposalID, types.ProposalStatusActive, newEndTime).
    Updates(map[string]interface{}{
      "end_time":         newEndTime,
      "grace_extensions": gorm.Expr("grace_extensions + 1"),
      "updated_at":       time.Now(),
    })
  if res.Error != nil {
    return false, res.Error
  }
  return res.RowsAffected == 1, nil
}
