package ledger

import (
  "context"
  "github.com/google/uuid"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

// Result is the explicit outcome of a best-effort ledger call. Callers
// inspect Submitted rather than treating a gateway failure as their own:
// a claim or vote is valid locally whether or not the chain accepted it.
type Result struct {
  Submitted bool   `json:"submitted"`
  TxHash    string `json:"tx_hash,omitempty"`
  Err       error  `json:"-"`
}

// Gateway abstracts the distributed-ledger collaborator. Every call
// carries its own timeout and never blocks a caller beyond it; a timed
// out call is indistinguishable from any other ledger failure.
type Gateway interface {
  RegisterClaim(ctx context.Context, claim *types.Claim) Result
  CastVoteOnChain(ctx context.Context, vote *types.Vote) Result
  ExecuteDecision(ctx context.Context, claimID uuid.UUID, approved bool) Result
}
