package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

type ClaimRepo interface {
  Create(ctx context.Context, tx *gorm.DB, claims []*types.Claim) ([]*types.Claim, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) ([]*types.Claim, error)
  GetByClaimantIDs(ctx context.Context, tx *gorm.DB, claimantIDs []uuid.UUID) ([]*types.Claim, error)
  ListByStatus(ctx context.Context, tx *gorm.DB, statuses []types.ClaimStatus) ([]*types.Claim, error)
  SetLedgerRegistration(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, registered bool, txHash string) error
  SetFraudAssessment(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, score float64, riskLevel string) error
  // ResolveIf performs the single conditional status write that takes a
  // claim to a terminal state. It reports whether this call was the one
  // that applied the transition; a claim already resolved yields false
  // with no error and no row touched.
  ResolveIf(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, from []types.ClaimStatus, to types.ClaimStatus, approvedAmount *float64, resolvedAt time.Time) (bool, error)
}

type claimRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewClaimRepo(db *gorm.DB, baseLog *logger.Logger) ClaimRepo {
  repoLog := baseLog.With("repo", "ClaimRepo")
  return &claimRepo{db: db, log: repoLog}
}

func (cr *claimRepo) Create(ctx context.Context, tx *gorm.DB, claims []*types.Claim) ([]*types.Claim, error) {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  if len(claims) == 0 {
    return []*types.Claim{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&claims).Error; err != nil {
    return nil, err
  }

  return claims, nil
}

func (cr *claimRepo) GetByIDs(ctx context.Context, tx *gorm.DB, claimIDs []uuid.UUID) ([]*types.Claim, error) {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  var results []*types.Claim

  if len(claimIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", claimIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (cr *claimRepo) GetByClaimantIDs(ctx context.Context, tx *gorm.DB, claimantIDs []uuid.UUID) ([]*types.Claim, error) {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  var results []*types.Claim

  if len(claimantIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("claimant_id IN ?", claimantIDs).
    Order("submitted_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (cr *claimRepo) ListByStatus(ctx context.Context, tx *gorm.DB, statuses []types.ClaimStatus) ([]*types.Claim, error) {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  var results []*types.Claim

  if len(statuses) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("status IN ?", statuses).
    Order("submitted_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (cr *claimRepo) SetLedgerRegistration(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, registered bool, txHash string) error {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  return transaction.WithContext(ctx).
    Model(&types.Claim{}).
    Where("id = ?", claimID).
    Updates(map[string]interface{}{
      "ledger_registered": registered,
      "ledger_tx_hash":    txHash,
      "updated_at":        time.Now(),
    }).Error
}

func (cr *claimRepo) SetFraudAssessment(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, score float64, riskLevel string) error {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  return transaction.WithContext(ctx).
    Model(&types.Claim{}).
    Where("id = ?", claimID).
    Updates(map[string]interface{}{
      "fraud_score":      score,
      "fraud_risk_level": riskLevel,
      "updated_at":       time.Now(),
    }).Error
}

func (cr *claimRepo) ResolveIf(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, from []types.ClaimStatus, to types.ClaimStatus, approvedAmount *float64, resolvedAt time.Time) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = cr.db
  }

  if len(from) == 0 {
    return false, nil
  }

  updates := map[string]interface{}{
    "status":      to,
    "resolved_at": resolvedAt,
    "updated_at":  time.Now(),
  }
  if approvedAmount != nil {
    updates["approved_amount"] = *approvedAmount
  }

  res := transaction.WithContext(ctx).
    Model(&types.Claim{}).
    Where("id = ? AND status IN ?", claimID, from).
    Updates(updates)
  if res.Error != nil {
    return false, res.Error
  }
  return res.RowsAffected == 1, nil
}
