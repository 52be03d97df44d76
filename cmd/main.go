package main

import (
  "context"
  "fmt"
  "os"
  "time"
  "github.com/AjnasNB/guardchain-sub000/internal/db"
  "github.com/AjnasNB/guardchain-sub000/internal/handlers"
  "github.com/AjnasNB/guardchain-sub000/internal/ledger"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/middleware"
  "github.com/AjnasNB/guardchain-sub000/internal/repos"
  "github.com/AjnasNB/guardchain-sub000/internal/server"
  "github.com/AjnasNB/guardchain-sub000/internal/services"
  "github.com/AjnasNB/guardchain-sub000/internal/sse"
  "github.com/AjnasNB/guardchain-sub000/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
  governanceCfg := services.LoadGovernanceConfig(log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  policyRepo := repos.NewPolicyRepo(thePG, log)
  claimRepo := repos.NewClaimRepo(thePG, log)
  proposalRepo := repos.NewProposalRepo(thePG, log)
  voteRepo := repos.NewVoteRepo(thePG, log)

  // SSE
  log.Info("Setting up SSE hub now...")
  sseHub := sse.NewSSEHub(log)
  var eventBus sse.Bus
  if os.Getenv("REDIS_ADDR") != "" {
    eventBus, err = sse.NewRedisBus(log)
    if err != nil {
      log.Warn("Redis event bus unavailable; events stay instance-local", "error", err)
      eventBus = nil
    } else if err := eventBus.StartForwarder(context.Background(), sseHub.Broadcast); err != nil {
      log.Warn("Redis event forwarder failed to start", "error", err)
      eventBus = nil
    }
  }
  notifier := services.NewGovernanceNotifier(log, sseHub, eventBus)

  // Ledger gateway
  var ledgerGateway ledger.Gateway
  ledgerGateway, err = ledger.NewHTTPGateway(log)
  if err != nil {
    log.Warn("Ledger gateway not configured; running in degraded mode", "error", err)
    ledgerGateway = ledger.NewNoopGateway(log)
  }

  // Services
  log.Info("Setting up Services from main...")
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  policyService := services.NewPolicyService(thePG, log, policyRepo)
  proposalService := services.NewProposalService(thePG, log, proposalRepo, voteRepo, governanceCfg)
  fraudScreener := services.NewFraudScreener(log)
  consensusMonitor := services.NewConsensusMonitor(thePG, log, claimRepo, proposalRepo, ledgerGateway, notifier, governanceCfg)
  claimService := services.NewClaimService(thePG, log, claimRepo, policyRepo, proposalRepo, proposalService, ledgerGateway, fraudScreener, consensusMonitor, notifier)
  voteService := services.NewVoteService(thePG, log, voteRepo, proposalRepo, userRepo, ledgerGateway, notifier)
  consensusMonitor.Start(context.Background())

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  policyHandler := handlers.NewPolicyHandler(log, policyService)
  claimHandler := handlers.NewClaimHandler(log, claimService)
  proposalHandler := handlers.NewProposalHandler(log, proposalService, voteService)
  sseHandler := handlers.NewSSEHandler(log, sseHub)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:     authHandler,
    AuthMiddleware:  authMiddleware,
    PolicyHandler:   policyHandler,
    ClaimHandler:    claimHandler,
    ProposalHandler: proposalHandler,
    SSEHandler:      sseHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
