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

type ProposalHandler struct {
  log             *logger.Logger
  proposalService services.ProposalService
  voteService     services.VoteService
}

func NewProposalHandler(log *logger.Logger, proposalService services.ProposalService, voteService services.VoteService) *ProposalHandler {
  return &ProposalHandler{
    log:             log.With("handler", "ProposalHandler"),
    proposalService: proposalService,
    voteService:     voteService,
  }
}

func (h *ProposalHandler) Get(c *gin.Context) {
  proposalID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_proposal_id", err)
    return
  }
  detail, err := h.proposalService.GetDetail(c.Request.Context(), nil, proposalID)
  if err != nil {
    if errors.Is(err, types.ErrProposalNotFound) {
      RespondError(c, http.StatusNotFound, "proposal_not_found", err)
      return
    }
    h.log.Error("Get proposal failed", "proposal_id", proposalID, "error", err)
    RespondError(c, http.StatusInternalServerError, "load_proposal_failed", err)
    return
  }
  RespondOK(c, detail)
}

func (h *ProposalHandler) List(c *gin.Context) {
  status := types.ProposalStatus(c.DefaultQuery("status", string(types.ProposalStatusActive)))
  proposals, err := h.proposalService.ListByStatus(c.Request.Context(), nil, status)
  if err != nil {
    h.log.Error("List proposals failed", "status", status, "error", err)
    RespondError(c, http.StatusInternalServerError, "load_proposals_failed", err)
    return
  }
  RespondOK(c, gin.H{"proposals": proposals})
}

func (h *ProposalHandler) CastVote(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  proposalID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_proposal_id", err)
    return
  }
  var req struct {
    Choice        types.VoteChoice `json:"choice"`
    Approved      *bool            `json:"approved"`
    VotingPower   float64          `json:"voting_power"`
    Justification string           `json:"justification"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
    return
  }
  choice := req.Choice
  // Wallet clients send a plain approved flag instead of a choice.
  if choice == "" && req.Approved != nil {
    if *req.Approved {
      choice = types.VoteChoiceFor
    } else {
      choice = types.VoteChoiceAgainst
    }
  }

  tally, err := h.voteService.CastVote(c.Request.Context(), services.CastVoteInput{
    ProposalID:    proposalID,
    VoterID:       rd.UserID,
    Choice:        choice,
    VotingPower:   req.VotingPower,
    Justification: req.Justification,
  })
  if err != nil {
    switch {
    case errors.Is(err, types.ErrDuplicateVote):
      RespondError(c, http.StatusConflict, "duplicate_vote", err)
    case errors.Is(err, types.ErrProposalNotActive):
      RespondError(c, http.StatusConflict, "proposal_not_active", err)
    case errors.Is(err, types.ErrProposalNotFound):
      RespondError(c, http.StatusNotFound, "proposal_not_found", err)
    case errors.Is(err, types.ErrInvalidVote):
      RespondError(c, http.StatusUnprocessableEntity, "invalid_vote", err)
    default:
      h.log.Error("Cast vote failed", "proposal_id", proposalID, "voter_id", rd.UserID, "error", err)
      RespondError(c, http.StatusInternalServerError, "cast_vote_failed", err)
    }
    return
  }
  RespondOK(c, gin.H{"tally": tally})
}
