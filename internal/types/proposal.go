package types

import (
	"time"
	"github.com/google/uuid"
)

type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "draft"
	ProposalStatusActive   ProposalStatus = "active"
	ProposalStatusPassed   ProposalStatus = "passed"
	ProposalStatusRejected ProposalStatus = "rejected"
	ProposalStatusExecuted ProposalStatus = "executed"
)

func (s ProposalStatus) IsTerminal() bool {
	return s == ProposalStatusPassed || s == ProposalStatusRejected || s == ProposalStatusExecuted
}

// Proposal is the time-boxed voting object created to resolve one claim.
// Tally columns (votes_for, votes_against, total_voting_power,
// participant_count) are only ever mutated through atomic SQL increments;
// see repos.ProposalRepo.ApplyVote.
type Proposal struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClaimID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"claim_id"`
	Title            string         `gorm:"column:title;not null" json:"title"`
	Description      string         `gorm:"column:description" json:"description"`
	Status           ProposalStatus `gorm:"column:status;not null;index" json:"status"`
	StartTime        time.Time      `gorm:"column:start_time;not null" json:"start_time"`
	EndTime          time.Time      `gorm:"column:end_time;not null;index" json:"end_time"`
	VotesFor         float64        `gorm:"column:votes_for;type:numeric(18,4);not null;default:0" json:"votes_for"`
	VotesAgainst     float64        `gorm:"column:votes_against;type:numeric(18,4);not null;default:0" json:"votes_against"`
	TotalVotingPower float64        `gorm:"column:total_voting_power;type:numeric(18,4);not null;default:0" json:"total_voting_power"`
	ParticipantCount int            `gorm:"column:participant_count;not null;default:0" json:"participant_count"`
	Quorum           int            `gorm:"column:quorum;not null" json:"quorum"`
	ThresholdPercent float64        `gorm:"column:threshold_percent;not null" json:"threshold_percent"`
	GraceExtensions  int            `gorm:"column:grace_extensions;not null;default:0" json:"grace_extensions"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (Proposal) TableName() string { return "proposal" }
