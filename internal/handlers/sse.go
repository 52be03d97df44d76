package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/requestdata"
  "github.com/AjnasNB/guardchain-sub000/internal/sse"
)

type SSEHandler struct {
  log *logger.Logger
  hub *sse.SSEHub
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub) *SSEHandler {
  return &SSEHandler{
    log: log.With("handler", "SSEHandler"),
    hub: hub,
  }
}

// Stream holds the connection open and pushes governance events for
// every channel the client subscribes to. Each connected client starts
// subscribed to its own claimant channel.
func (h *SSEHandler) Stream(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  client := h.hub.NewSSEClient(rd.UserID)
  h.hub.AddChannel(client, sse.ClaimChannel(rd.UserID))
  defer h.hub.CloseClient(client)
  h.hub.ServeHTTP(c.Writer, c.Request, client)
}

func (h *SSEHandler) Subscribe(c *gin.Context) {
  h.updateSubscription(c, true)
}

func (h *SSEHandler) Unsubscribe(c *gin.Context) {
  h.updateSubscription(c, false)
}

func (h *SSEHandler) updateSubscription(c *gin.Context, add bool) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  var req struct {
    ProposalID uuid.UUID `json:"proposal_id"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.ProposalID == uuid.Nil {
    RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
    return
  }
  channel := sse.ProposalChannel(req.ProposalID)
  updated := 0
  for _, client := range h.hub.ClientsForUser(rd.UserID) {
    if add {
      h.hub.AddChannel(client, channel)
    } else {
      h.hub.RemoveChannel(client, channel)
    }
    updated++
  }
  RespondOK(c, gin.H{"channel": channel, "clients": updated})
}
