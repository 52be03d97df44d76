package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/requestdata"
  "github.com/AjnasNB/guardchain-sub000/internal/services"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

type PolicyHandler struct {
  log           *logger.Logger
  policyService services.PolicyService
}

func NewPolicyHandler(log *logger.Logger, policyService services.PolicyService) *PolicyHandler {
  return &PolicyHandler{
    log:           log.With("handler", "PolicyHandler"),
    policyService: policyService,
  }
}

func (h *PolicyHandler) Create(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  var req struct {
    PolicyNumber   string           `json:"policy_number"`
    PolicyType     types.PolicyType `json:"policy_type"`
    CoverageAmount float64          `json:"coverage_amount"`
    PremiumAmount  float64          `json:"premium_amount"`
    TermMonths     int              `json:"term_months"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
    return
  }
  policy, err := h.policyService.CreatePolicy(c.Request.Context(), services.CreatePolicyInput{
    HolderID:       rd.UserID,
    PolicyNumber:   req.PolicyNumber,
    PolicyType:     req.PolicyType,
    CoverageAmount: req.CoverageAmount,
    PremiumAmount:  req.PremiumAmount,
    TermMonths:     req.TermMonths,
  })
  if err != nil {
    RespondError(c, http.StatusBadRequest, "create_policy_failed", err)
    return
  }
  RespondOK(c, gin.H{"policy": policy})
}

func (h *PolicyHandler) ListMine(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  policies, err := h.policyService.GetHolderPolicies(c.Request.Context(), nil, rd.UserID)
  if err != nil {
    h.log.Error("List policies failed", "holder_id", rd.UserID, "error", err)
    RespondError(c, http.StatusInternalServerError, "load_policies_failed", err)
    return
  }
  RespondOK(c, gin.H{"policies": policies})
}
