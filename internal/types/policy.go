package types

import (
	"time"
	"github.com/google/uuid"
)

type PolicyStatus string

const (
	PolicyStatusActive    PolicyStatus = "active"
	PolicyStatusExpired   PolicyStatus = "expired"
	PolicyStatusCancelled PolicyStatus = "cancelled"
)

type PolicyType string

const (
	PolicyTypeHealth   PolicyType = "health"
	PolicyTypeVehicle  PolicyType = "vehicle"
	PolicyTypeProperty PolicyType = "property"
	PolicyTypeLife     PolicyType = "life"
)

type Policy struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	HolderID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"holder_id"`
	PolicyNumber   string       `gorm:"column:policy_number;not null;uniqueIndex" json:"policy_number"`
	PolicyType     PolicyType   `gorm:"column:policy_type;not null" json:"policy_type"`
	CoverageAmount float64      `gorm:"column:coverage_amount;type:numeric(18,2);not null" json:"coverage_amount"`
	PremiumAmount  float64      `gorm:"column:premium_amount;type:numeric(18,2);not null" json:"premium_amount"`
	Status         PolicyStatus `gorm:"column:status;not null;index" json:"status"`
	StartDate      time.Time    `gorm:"column:start_date;not null" json:"start_date"`
	EndDate        time.Time    `gorm:"column:end_date;not null" json:"end_date"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
}

func (Policy) TableName() string { return "policy" }
