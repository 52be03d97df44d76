package ledger

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "time"
  "github.com/google/uuid"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
  "github.com/AjnasNB/guardchain-sub000/internal/utils"
)

type httpGateway struct {
  httpClient *http.Client
  log        *logger.Logger
  baseURL    string
  apiKey     string
}

func NewHTTPGateway(log *logger.Logger) (Gateway, error) {
  serviceLog := log.With("service", "LedgerGateway")
  baseURL := utils.GetEnv("LEDGER_BASE_URL", "", log)
  if baseURL == "" {
    return nil, fmt.Errorf("LEDGER_BASE_URL is not set")
  }
  apiKey := utils.GetEnv("LEDGER_API_KEY", "", log)
  timeout := utils.GetEnvAsDuration("LEDGER_TIMEOUT", 10*time.Second, log)
  return &httpGateway{
    httpClient: &http.Client{
      Timeout: timeout,
    },
    log:     serviceLog,
    baseURL: baseURL,
    apiKey:  apiKey,
  }, nil
}

func (g *httpGateway) RegisterClaim(ctx context.Context, claim *types.Claim) Result {
  payload := map[string]interface{}{
    "claim_id":         claim.ID,
    "policy_id":        claim.PolicyID,
    "claimant_id":      claim.ClaimantID,
    "requested_amount": claim.RequestedAmount,
    "evidence_refs":    claim.EvidenceRefs,
    "submitted_at":     claim.SubmittedAt,
  }
  return g.post(ctx, "/claims", payload)
}

func (g *httpGateway) CastVoteOnChain(ctx context.Context, vote *types.Vote) Result {
  payload := map[string]interface{}{
    "vote_id":      vote.ID,
    "proposal_id":  vote.ProposalID,
    "voter_id":     vote.VoterID,
    "choice":       vote.Choice,
    "voting_power": vote.VotingPower,
    "cast_at":      vote.CastAt,
  }
  return g.post(ctx, "/votes", payload)
}

func (g *httpGateway) ExecuteDecision(ctx context.Context, claimID uuid.UUID, approved bool) Result {
  payload := map[string]interface{}{
    "claim_id": claimID,
    "approved": approved,
  }
  return g.post(ctx, "/decisions", payload)
}

func (g *httpGateway) post(ctx context.Context, path string, payload map[string]interface{}) Result {
  body, err := json.Marshal(payload)
  if err != nil {
    return Result{Err: fmt.Errorf("%w: marshal payload: %v", types.ErrLedgerUnavailable, err)}
  }

  req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
  if err != nil {
    return Result{Err: fmt.Errorf("%w: build request: %v", types.ErrLedgerUnavailable, err)}
  }
  req.Header.Set("Content-Type", "application/json")
  if g.apiKey != "" {
    req.Header.Set("Authorization", "Bearer "+g.apiKey)
  }

  resp, err := g.httpClient.Do(req)
  if err != nil {
    g.log.Warn("Ledger call failed", "path", path, "error", err)
    return Result{Err: fmt.Errorf("%w: %v", types.ErrLedgerUnavailable, err)}
  }
  defer resp.Body.Close()

  raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
  if err != nil {
    return Result{Err: fmt.Errorf("%w: read response: %v", types.ErrLedgerUnavailable, err)}
  }

  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    g.log.Warn("Ledger call returned non-2xx", "path", path, "status", resp.StatusCode)
    return Result{Err: fmt.Errorf("%w: status %d", types.ErrLedgerUnavailable, resp.StatusCode)}
  }

  var parsed struct {
    TxHash string `json:"tx_hash"`
  }
  if err := json.Unmarshal(raw, &parsed); err != nil {
    // Chain accepted the call; a malformed receipt body does not undo that.
    g.log.Warn("Ledger response could not be parsed", "path", path, "error", err)
    return Result{Submitted: true}
  }
  return Result{Submitted: true, TxHash: parsed.TxHash}
}
