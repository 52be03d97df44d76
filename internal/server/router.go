package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "github.com/AjnasNB/guardchain-sub000/internal/handlers"
  "github.com/AjnasNB/guardchain-sub000/internal/middleware"
)

type RouterConfig struct {
  AuthHandler     *handlers.AuthHandler
  AuthMiddleware  *middleware.AuthMiddleware
  PolicyHandler   *handlers.PolicyHandler
  ClaimHandler    *handlers.ClaimHandler
  ProposalHandler *handlers.ProposalHandler
  SSEHandler      *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  api := router.Group("/api")
  {
    api.POST("/register", cfg.AuthHandler.Register)
    api.POST("/login", cfg.AuthHandler.Login)
  }

// ===============
// || Protected ||
// ===============
  protected := router.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Auth
  protected.POST("/refresh", cfg.AuthHandler.Refresh)
  protected.POST("/logout", cfg.AuthHandler.Logout)
  // Policies
  protected.POST("/policies", cfg.PolicyHandler.Create)
  protected.GET("/policies", cfg.PolicyHandler.ListMine)
  // Claims
  protected.POST("/claims", cfg.ClaimHandler.Submit)
  protected.GET("/claims", cfg.ClaimHandler.ListMine)
  protected.GET("/claims/:id", cfg.ClaimHandler.Get)
  // Proposals + votes
  protected.GET("/proposals", cfg.ProposalHandler.List)
  protected.GET("/proposals/:id", cfg.ProposalHandler.Get)
  protected.POST("/proposals/:id/votes", cfg.ProposalHandler.CastVote)
  // SSE
  protected.GET("/sse/stream", cfg.SSEHandler.Stream)
  protected.POST("/sse/subscribe", cfg.SSEHandler.Subscribe)
  protected.POST("/sse/unsubscribe", cfg.SSEHandler.Unsubscribe)

  return router
}
