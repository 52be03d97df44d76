package db

import (
  "fmt"
  "gorm.io/driver/postgres"
  "gorm.io/gorm"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
  "github.com/AjnasNB/guardchain-sub000/internal/utils"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  log.Info("Loading environment variables...")
  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "guardchain", log)
  log.Debug("Environment variables loaded")

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  log.Info("Connecting to Postgres...")
  db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
    TranslateError:                           true,
  })
  if err != nil {
    log.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
    log.Error("Failed to enable uuid-ossp extension", "error", err)
    return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
  }
  log.Info("uuid-ossp extension enabled")

  return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &types.User{},
    &types.UserToken{},
    &types.Policy{},
    &types.Claim{},
    &types.Proposal{},
    &types.Vote{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for postgres tables", "error", err)
    return err
  }
  s.log.Info("Configuring foreign key relationships for postgres tables...")
  constraints := []struct {
    name string
    stmt string
  }{
    {
      name: "fk_user_token_user_id",
      stmt: `ALTER TABLE "user_token" ADD CONSTRAINT "fk_user_token_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`,
    },
    {
      name: "fk_claim_policy_id",
      stmt: `ALTER TABLE "claim" ADD CONSTRAINT "fk_claim_policy_id" FOREIGN KEY ("policy_id") REFERENCES "policy"("id")`,
    },
    {
      name: "fk_proposal_claim_id",
      stmt: `ALTER TABLE "proposal" ADD CONSTRAINT "fk_proposal_claim_id" FOREIGN KEY ("claim_id") REFERENCES "claim"("id") ON DELETE CASCADE`,
    },
    {
      name: "fk_vote_proposal_id",
      stmt: `ALTER TABLE "vote" ADD CONSTRAINT "fk_vote_proposal_id" FOREIGN KEY ("proposal_id") REFERENCES "proposal"("id") ON DELETE CASCADE`,
    },
  }
  for _, c := range constraints {
    var count int64
    if err := s.db.Raw(`SELECT COUNT(*) FROM pg_constraint WHERE conname = ?`, c.name).Scan(&count).Error; err != nil {
      return fmt.Errorf("Failed to check constraint %s: %w", c.name, err)
    }
    if count > 0 {
      continue
    }
    if err := s.db.Exec(c.stmt).Error; err != nil {
      return fmt.Errorf("Failed to add %s: %w", c.name, err)
    }
  }
  // One live voting proposal per claim, enforced at the database so two
  // concurrent CreateForClaim calls cannot both insert.
  if err := s.db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_proposal_active_claim ON "proposal" ("claim_id") WHERE status = 'active'`).Error; err != nil {
    return fmt.Errorf("Failed to add idx_proposal_active_claim: %w", err)
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
