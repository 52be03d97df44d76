package services

import (
  "time"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/utils"
)

// GovernanceConfig carries the per-proposal voting parameters stamped
// onto each proposal at creation time, plus the monitor's scheduling
// knobs. Quorum counts distinct voters; ThresholdPercent compares the
// weighted for-share of cast votes.
type GovernanceConfig struct {
  VotingPeriod           time.Duration
  Quorum                 int
  ThresholdPercent       float64
  GracePeriod            time.Duration
  SweepInterval          time.Duration
  EvaluationParallelism  int
  MaxConsecutiveFailures int
}

func LoadGovernanceConfig(log *logger.Logger) GovernanceConfig {
  return GovernanceConfig{
    VotingPeriod:           utils.GetEnvAsDuration("VOTING_PERIOD", 72*time.Hour, log),
    Quorum:                 utils.GetEnvAsInt("VOTING_QUORUM", 3, log),
    ThresholdPercent:       utils.GetEnvAsFloat("APPROVAL_THRESHOLD_PERCENT", 50, log),
    GracePeriod:            utils.GetEnvAsDuration("QUORUM_GRACE_PERIOD", 24*time.Hour, log),
    SweepInterval:          utils.GetEnvAsDuration("CONSENSUS_SWEEP_INTERVAL", 15*time.Second, log),
    EvaluationParallelism:  utils.GetEnvAsInt("CONSENSUS_SWEEP_PARALLELISM", 4, log),
    MaxConsecutiveFailures: utils.GetEnvAsInt("CONSENSUS_MAX_CONSECUTIVE_FAILURES", 5, log),
  }
}
