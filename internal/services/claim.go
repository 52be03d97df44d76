package services

import (
  "context"
  "encoding/json"
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

type SubmitClaimInput struct {
  PolicyID        uuid.UUID `json:"policy_id"`
  ClaimantID      uuid.UUID `json:"claimant_id"`
  RequestedAmount float64   `json:"requested_amount"`
  Description     string    `json:"description"`
  EvidenceRefs    []string  `json:"evidence_refs"`
}

type SubmitClaimResult struct {
  Claim            *types.Claim `json:"claim"`
  ProposalID       uuid.UUID    `json:"proposal_id"`
  LedgerRegistered bool         `json:"ledger_registered"`
}

type ClaimDetail struct {
  Claim    *types.Claim    `json:"claim"`
  Proposal *types.Proposal `json:"proposal,omitempty"`
  Tally    *TallySnapshot  `json:"tally,omitempty"`
}

type ClaimService interface {
  // SubmitClaim is the intake path: validation is the only fail-fast
  // step; the ledger call is best-effort and the proposal is opened
  // whether or not the chain accepted the registration.
  SubmitClaim(ctx context.Context, input SubmitClaimInput) (*SubmitClaimResult, error)
  GetClaimDetail(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*ClaimDetail, error)
  GetClaimantClaims(ctx context.Context, tx *gorm.DB, claimantID uuid.UUID) ([]*types.Claim, error)
}

// ConsensusScheduler is the narrow slice of the monitor the intake path
// needs: nudge the sweep so a fresh proposal gets its first evaluation
// without waiting a full interval.
type ConsensusScheduler interface {
  WakeUp()
}

type claimService struct {
  db              *gorm.DB
  log             *logger.Logger
  claimRepo       repos.ClaimRepo
  policyRepo      repos.PolicyRepo
  proposalRepo    repos.ProposalRepo
  proposalService ProposalService
  ledgerGateway   ledger.Gateway
  fraudScreener   FraudScreener
  scheduler       ConsensusScheduler
  notifier        GovernanceNotifier
}

func NewClaimService(
  db *gorm.DB,
  baseLog *logger.Logger,
  claimRepo repos.ClaimRepo,
  policyRepo repos.PolicyRepo,
  proposalRepo repos.ProposalRepo,
  proposalService ProposalService,
  ledgerGateway ledger.Gateway,
  fraudScreener FraudScreener,
  scheduler ConsensusScheduler,
  notifier GovernanceNotifier,
) ClaimService {
  serviceLog := baseLog.With("service", "ClaimService")
  return &claimService{
    db:              db,
    log:             serviceLog,
    claimRepo:       claimRepo,
    policyRepo:      policyRepo,
    proposalRepo:    proposalRepo,
    proposalService: proposalService,
    ledgerGateway:   ledgerGateway,
    fraudScreener:   fraudScreener,
    scheduler:       scheduler,
    notifier:        notifier,
  }
}

func (cs *claimService) SubmitClaim(ctx context.Context, input SubmitClaimInput) (*SubmitClaimResult, error) {
  policy, err := cs.validate(ctx, input)
  if err != nil {
    return nil, err
  }

  evidenceJSON, err := json.Marshal(input.EvidenceRefs)
  if err != nil {
    return nil, fmt.Errorf("%w: evidence refs not serializable", types.ErrInvalidClaim)
  }

  now := time.Now()
  claim := &types.Claim{
    ID:              uuid.New(),
    PolicyID:        input.PolicyID,
    ClaimantID:      input.ClaimantID,
    RequestedAmount: input.RequestedAmount,
    Description:     strings.TrimSpace(input.Description),
    EvidenceRefs:    evidenceJSON,
    Status:          types.ClaimStatusPending,
    SubmittedAt:     now,
    CreatedAt:       now,
    UpdatedAt:       now,
  }

  var proposal *types.Proposal
  if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, cErr := cs.claimRepo.Create(ctx, tx, []*types.Claim{claim}); cErr != nil {
      return fmt.Errorf("create claim: %w", cErr)
    }
    var pErr error
    proposal, pErr = cs.proposalService.CreateForClaim(ctx, tx, claim)
    if pErr != nil {
      return fmt.Errorf("open proposal: %w", pErr)
    }
    return nil
  }); err != nil {
    cs.log.Error("SubmitClaim failed", "claimant_id", input.ClaimantID, "error", err)
    return nil, err
  }

  // Ledger registration never blocks or aborts a submission; failure is
  // recorded as a flag on the claim and surfaced to the caller.
  result := cs.ledgerGateway.RegisterClaim(ctx, claim)
  if result.Submitted {
    claim.LedgerRegistered = true
    claim.LedgerTxHash = result.TxHash
    if uErr := cs.claimRepo.SetLedgerRegistration(ctx, nil, claim.ID, true, result.TxHash); uErr != nil {
      cs.log.Warn("Failed to persist ledger registration flag", "claim_id", claim.ID, "error", uErr)
    }
  } else {
    cs.log.Warn("Claim not registered on ledger; continuing in degraded mode",
      "claim_id", claim.ID, "error", result.Err)
  }

  if cs.fraudScreener != nil {
    assessment := cs.fraudScreener.Screen(claim, policy.PolicyType)
    claim.FraudScore = &assessment.Score
    claim.FraudRiskLevel = assessment.RiskLevel
    if uErr := cs.claimRepo.SetFraudAssessment(ctx, nil, claim.ID, assessment.Score, assessment.RiskLevel); uErr != nil {
      cs.log.Warn("Failed to persist fraud assessment", "claim_id", claim.ID, "error", uErr)
    }
  }

  if cs.scheduler != nil {
    cs.scheduler.WakeUp()
  }

  cs.notifier.Notify(ctx, sse.SSEMessage{
    Channel: sse.ClaimChannel(claim.ClaimantID),
    Event:   sse.SSEEventClaimSubmitted,
    Data: map[string]interface{}{
      "claim":       claim,
      "proposal_id": proposal.ID,
    },
  })

  return &SubmitClaimResult{
    Claim:            claim,
    ProposalID:       proposal.ID,
    LedgerRegistered: claim.LedgerRegistered,
  }, nil
}

func (cs *claimService) validate(ctx context.Context, input SubmitClaimInput) (*types.Policy, error) {
  if input.ClaimantID == uuid.Nil {
    return nil, fmt.Errorf("%w: claimant id is required", types.ErrInvalidClaim)
  }
  if input.PolicyID == uuid.Nil {
    return nil, fmt.Errorf("%w: policy id is required", types.ErrInvalidClaim)
  }
  if input.RequestedAmount <= 0 {
    return nil, fmt.Errorf("%w: requested amount must be positive", types.ErrInvalidClaim)
  }
  if strings.TrimSpace(input.Description) == "" {
    return nil, fmt.Errorf("%w: description is required", types.ErrInvalidClaim)
  }

  policies, err := cs.policyRepo.GetByIDs(ctx, nil, []uuid.UUID{input.PolicyID})
  if err != nil {
    return nil, fmt.Errorf("load policy: %w", err)
  }
  if len(policies) == 0 || policies[0] == nil {
    return nil, fmt.Errorf("%w: policy does not exist", types.ErrInvalidClaim)
  }
  policy := policies[0]
  if policy.Status != types.PolicyStatusActive {
    return nil, fmt.Errorf("%w: policy is not active", types.ErrInvalidClaim)
  }
  if input.RequestedAmount > policy.CoverageAmount {
    return nil, fmt.Errorf("%w: requested amount exceeds coverage", types.ErrInvalidClaim)
  }
  return policy, nil
}

func (cs *claimService) GetClaimDetail(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*ClaimDetail, error) {
  transaction := tx
  if transaction == nil {
    transaction = cs.db
  }

  claims, err := cs.claimRepo.GetByIDs(ctx, transaction, []uuid.UUID{claimID})
  if err != nil {
    return nil, fmt.Errorf("load claim: %w", err)
  }
  if len(claims) == 0 || claims[0] == nil {
    return nil, types.ErrClaimNotFound
  }
  claim := claims[0]

  detail := &ClaimDetail{Claim: claim}

  proposals, err := cs.proposalRepo.GetByClaimIDs(ctx, transaction, []uuid.UUID{claimID})
  if err != nil {
    return nil, fmt.Errorf("load proposals: %w", err)
  }
  if len(proposals) > 0 && proposals[0] != nil {
    detail.Proposal = proposals[0]
    tally := TallyFromProposal(proposals[0])
    detail.Tally = &tally
  }
  return detail, nil
}

func (cs *claimService) GetClaimantClaims(ctx context.Context, tx *gorm.DB, claimantID uuid.UUID) ([]*types.Claim, error) {
  transaction := tx
  if transaction == nil {
    transaction = cs.db
  }
  return cs.claimRepo.GetByClaimantIDs(ctx, transaction, []uuid.UUID{claimantID})
}
