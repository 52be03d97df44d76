package types

import (
	"time"
	"github.com/google/uuid"
)

type VoteChoice string

const (
	VoteChoiceFor     VoteChoice = "for"
	VoteChoiceAgainst VoteChoice = "against"
	VoteChoiceAbstain VoteChoice = "abstain"
)

func (c VoteChoice) Valid() bool {
	switch c {
	case VoteChoiceFor, VoteChoiceAgainst, VoteChoiceAbstain:
		return true
	}
	return false
}

// Vote is immutable once written. The composite unique index is what
// enforces one vote per (proposal, voter) under concurrent casts.
type Vote struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProposalID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_vote_proposal_voter" json:"proposal_id"`
	VoterID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_vote_proposal_voter" json:"voter_id"`
	Choice        VoteChoice `gorm:"column:choice;not null" json:"choice"`
	VotingPower   float64    `gorm:"column:voting_power;type:numeric(18,4);not null" json:"voting_power"`
	Justification string     `gorm:"column:justification" json:"justification,omitempty"`
	CastAt        time.Time  `gorm:"column:cast_at;not null;index" json:"cast_at"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
}

func (Vote) TableName() string { return "vote" }
