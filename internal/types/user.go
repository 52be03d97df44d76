package types

import (
  "time"
  "github.com/google/uuid"
)

// User is both a policyholder who can submit claims and a community
// member who can vote on proposals. VotingPower is a positive weight,
// defaulting to 1.
type User struct {
  ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
  Email         string      `gorm:"uniqueIndex;not null;column:email" json:"email"`
  Password      string      `gorm:"not null;column:password" json:"-"`
  FirstName     string      `gorm:"not null;column:first_name" json:"first_name"`
  LastName      string      `gorm:"not null;column:last_name" json:"last_name"`
  WalletAddress string      `gorm:"column:wallet_address" json:"wallet_address,omitempty"`
  VotingPower   float64     `gorm:"column:voting_power;type:numeric(18,4);not null;default:1" json:"voting_power"`
  CreatedAt     time.Time   `gorm:"not null" json:"created_at"`
  UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
  return "user"
}
