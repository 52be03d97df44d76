package types

import (
	"time"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ClaimStatus string

const (
	ClaimStatusPending     ClaimStatus = "pending"
	ClaimStatusUnderReview ClaimStatus = "under_review"
	ClaimStatusApproved    ClaimStatus = "approved"
	ClaimStatusRejected    ClaimStatus = "rejected"
)

// IsTerminal reports whether the claim can no longer change status.
func (s ClaimStatus) IsTerminal() bool {
	return s == ClaimStatusApproved || s == ClaimStatusRejected
}

type Claim struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PolicyID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"policy_id"`
	ClaimantID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"claimant_id"`
	RequestedAmount  float64        `gorm:"column:requested_amount;type:numeric(18,2);not null" json:"requested_amount"`
	ApprovedAmount   *float64       `gorm:"column:approved_amount;type:numeric(18,2)" json:"approved_amount,omitempty"`
	Description      string         `gorm:"column:description;not null" json:"description"`
	EvidenceRefs     datatypes.JSON `gorm:"type:jsonb;column:evidence_refs" json:"evidence_refs"`
	Status           ClaimStatus    `gorm:"column:status;not null;index" json:"status"`
	LedgerRegistered bool           `gorm:"column:ledger_registered;not null;default:false" json:"ledger_registered"`
	LedgerTxHash     string         `gorm:"column:ledger_tx_hash" json:"ledger_tx_hash,omitempty"`
	FraudScore       *float64       `gorm:"column:fraud_score" json:"fraud_score,omitempty"`
	FraudRiskLevel   string         `gorm:"column:fraud_risk_level" json:"fraud_risk_level,omitempty"`
	SubmittedAt      time.Time      `gorm:"column:submitted_at;not null;index" json:"submitted_at"`
	ResolvedAt       *time.Time     `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (Claim) TableName() string { return "claim" }
