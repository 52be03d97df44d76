package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/repos"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

type CreatePolicyInput struct {
  HolderID       uuid.UUID        `json:"holder_id"`
  PolicyNumber   string           `json:"policy_number"`
  PolicyType     types.PolicyType `json:"policy_type"`
  CoverageAmount float64          `json:"coverage_amount"`
  PremiumAmount  float64          `json:"premium_amount"`
  TermMonths     int              `json:"term_months"`
}

type PolicyService interface {
  CreatePolicy(ctx context.Context, input CreatePolicyInput) (*types.Policy, error)
  GetHolderPolicies(ctx context.Context, tx *gorm.DB, holderID uuid.UUID) ([]*types.Policy, error)
}

type policyService struct {
  db         *gorm.DB
  log        *logger.Logger
  policyRepo repos.PolicyRepo
}

func NewPolicyService(db *gorm.DB, baseLog *logger.Logger, policyRepo repos.PolicyRepo) PolicyService {
  serviceLog := baseLog.With("service", "PolicyService")
  return &policyService{
    db:         db,
    log:        serviceLog,
    policyRepo: policyRepo,
  }
}

func (ps *policyService) CreatePolicy(ctx context.Context, input CreatePolicyInput) (*types.Policy, error) {
  if input.HolderID == uuid.Nil {
    return nil, fmt.Errorf("holder id is required")
  }
  if strings.TrimSpace(input.PolicyNumber) == "" {
    return nil, fmt.Errorf("policy number is required")
  }
  if input.CoverageAmount <= 0 {
    return nil, fmt.Errorf("coverage amount must be positive")
  }
  termMonths := input.TermMonths
  if termMonths <= 0 {
    termMonths = 12
  }

  now := time.Now()
  policy := &types.Policy{
    ID:             uuid.New(),
    HolderID:       input.HolderID,
    PolicyNumber:   strings.TrimSpace(input.PolicyNumber),
    PolicyType:     input.PolicyType,
    CoverageAmount: input.CoverageAmount,
    PremiumAmount:  input.PremiumAmount,
    Status:         types.PolicyStatusActive,
    StartDate:      now,
    EndDate:        now.AddDate(0, termMonths, 0),
    CreatedAt:      now,
    UpdatedAt:      now,
  }
  if _, err := ps.policyRepo.Create(ctx, nil, []*types.Policy{policy}); err != nil {
    ps.log.Error("CreatePolicy failed", "holder_id", input.HolderID, "error", err)
    return nil, fmt.Errorf("create policy: %w", err)
  }
  return policy, nil
}

func (ps *policyService) GetHolderPolicies(ctx context.Context, tx *gorm.DB, holderID uuid.UUID) ([]*types.Policy, error) {
  transaction := tx
  if transaction == nil {
    transaction = ps.db
  }
  return ps.policyRepo.GetByHolderIDs(ctx, transaction, []uuid.UUID{holderID})
}
