package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

type PolicyRepo interface {
  Create(ctx context.Context, tx *gorm.DB, policies []*types.Policy) ([]*types.Policy, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) ([]*types.Policy, error)
  GetByHolderIDs(ctx context.Context, tx *gorm.DB, holderIDs []uuid.UUID) ([]*types.Policy, error)
  ActiveExists(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) (bool, error)
}

type policyRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPolicyRepo(db *gorm.DB, baseLog *logger.Logger) PolicyRepo {
  repoLog := baseLog.With("repo", "PolicyRepo")
  return &policyRepo{db: db, log: repoLog}
}

func (pr *policyRepo) Create(ctx context.Context, tx *gorm.DB, policies []*types.Policy) ([]*types.Policy, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  if len(policies) == 0 {
    return []*types.Policy{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&policies).Error; err != nil {
    return nil, err
  }

  return policies, nil
}

func (pr *policyRepo) GetByIDs(ctx context.Context, tx *gorm.DB, policyIDs []uuid.UUID) ([]*types.Policy, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  var results []*types.Policy

  if len(policyIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", policyIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (pr *policyRepo) GetByHolderIDs(ctx context.Context, tx *gorm.DB, holderIDs []uuid.UUID) ([]*types.Policy, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  var results []*types.Policy

  if len(holderIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("holder_id IN ?", holderIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (pr *policyRepo) ActiveExists(ctx context.Context, tx *gorm.DB, policyID uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  var count int64

  if err := transaction.WithContext(ctx).
    Model(&types.Policy{}).
    Where("id = ? AND status = ?", policyID, types.PolicyStatusActive).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}
