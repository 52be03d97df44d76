package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/requestdata"
  "github.com/AjnasNB/guardchain-sub000/internal/services"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

type ClaimHandler struct {
  log          *logger.Logger
  claimService services.ClaimService
}

func NewClaimHandler(log *logger.Logger, claimService services.ClaimService) *ClaimHandler {
  return &ClaimHandler{
    log:          log.With("handler", "ClaimHandler"),
    claimService: claimService,
  }
}

func (h *ClaimHandler) Submit(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  var req struct {
    PolicyID        uuid.UUID `json:"policy_id"`
    RequestedAmount float64   `json:"requested_amount"`
    Description     string    `json:"description"`
    EvidenceRefs    []string  `json:"evidence_refs"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
    return
  }

  result, err := h.claimService.SubmitClaim(c.Request.Context(), services.SubmitClaimInput{
    PolicyID:        req.PolicyID,
    ClaimantID:      rd.UserID,
    RequestedAmount: req.RequestedAmount,
    Description:     req.Description,
    EvidenceRefs:    req.EvidenceRefs,
  })
  if err != nil {
    if errors.Is(err, types.ErrInvalidClaim) {
      RespondError(c, http.StatusUnprocessableEntity, "invalid_claim", err)
      return
    }
    h.log.Error("Submit claim failed", "claimant_id", rd.UserID, "error", err)
    RespondError(c, http.StatusInternalServerError, "submit_claim_failed", err)
    return
  }
  RespondOK(c, result)
}

func (h *ClaimHandler) Get(c *gin.Context) {
  claimID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_claim_id", err)
    return
  }
  detail, err := h.claimService.GetClaimDetail(c.Request.Context(), nil, claimID)
  if err != nil {
    if errors.Is(err, types.ErrClaimNotFound) {
      RespondError(c, http.StatusNotFound, "claim_not_found", err)
      return
    }
    h.log.Error("Get claim failed", "claim_id", claimID, "error", err)
    RespondError(c, http.StatusInternalServerError, "load_claim_failed", err)
    return
  }
  RespondOK(c, detail)
}

func (h *ClaimHandler) ListMine(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  claims, err := h.claimService.GetClaimantClaims(c.Request.Context(), nil, rd.UserID)
  if err != nil {
    h.log.Error("List claims failed", "claimant_id", rd.UserID, "error", err)
    RespondError(c, http.StatusInternalServerError, "load_claims_failed", err)
    return
  }
  RespondOK(c, gin.H{"claims": claims})
}
