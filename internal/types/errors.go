package types

import "errors"

// Error taxonomy for the claim-to-consensus pipeline. Validation and
// duplicate-vote errors surface synchronously to the caller; ledger
// errors are absorbed into a status flag and never abort governance.
var (
	ErrInvalidClaim      = errors.New("invalid claim")
	ErrPolicyNotFound    = errors.New("policy not found")
	ErrClaimNotFound     = errors.New("claim not found")
	ErrProposalNotFound  = errors.New("proposal not found")
	ErrProposalNotActive = errors.New("proposal not active")
	ErrDuplicateVote     = errors.New("duplicate vote")
	ErrInvalidVote       = errors.New("invalid vote")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)
