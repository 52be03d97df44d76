package services

import (
  "regexp"
  "strings"
  "github.com/AjnasNB/guardchain-sub000/internal/logger"
  "github.com/AjnasNB/guardchain-sub000/internal/types"
)

// FraudScreener produces an advisory risk score for a freshly submitted
// claim. The score never gates intake or governance; it is stored on the
// claim so voters can weigh it.
type FraudScreener interface {
  Screen(claim *types.Claim, policyType types.PolicyType) FraudAssessment
}

type FraudAssessment struct {
  Score       float64  `json:"score"`
  RiskLevel   string   `json:"risk_level"`
  RiskFactors []string `json:"risk_factors,omitempty"`
}

type amountRange struct {
  low  float64
  high float64
}

type fraudScreener struct {
  log              *logger.Logger
  keywords         []string
  amountThresholds map[types.PolicyType]amountRange
  roundAmountRe    *regexp.Regexp
  missingInfoRes   []*regexp.Regexp
}

func NewFraudScreener(baseLog *logger.Logger) FraudScreener {
  return &fraudScreener{
    log: baseLog.With("service", "FraudScreener"),
    keywords: []string{
      "fake", "forged", "altered", "modified", "suspicious",
      "emergency", "urgent", "immediate", "rush", "asap",
      "cash only", "no receipt", "lost receipt", "damaged receipt",
    },
    amountThresholds: map[types.PolicyType]amountRange{
      types.PolicyTypeHealth:   {low: 100, high: 50000},
      types.PolicyTypeVehicle:  {low: 500, high: 100000},
      types.PolicyTypeProperty: {low: 1000, high: 500000},
      types.PolicyTypeLife:     {low: 1000, high: 1000000},
    },
    roundAmountRe: regexp.MustCompile(`\b\d+00\.00\b`),
    missingInfoRes: []*regexp.Regexp{
      regexp.MustCompile(`(?i)N/A`),
      regexp.MustCompile(`(?i)Unknown`),
      regexp.MustCompile(`(?i)TBD`),
      regexp.MustCompile(`--`),
    },
  }
}

func (fs *fraudScreener) Screen(claim *types.Claim, policyType types.PolicyType) FraudAssessment {
  text := claim.Description
  textLower := strings.ToLower(text)
  words := strings.Fields(textLower)
  var riskFactors []string

  // Keyword scan over the free-form description.
  keywordHits := 0
  for _, kw := range fs.keywords {
    if strings.Contains(textLower, kw) {
      keywordHits++
    }
  }
  wordCount := len(words)
  if wordCount == 0 {
    wordCount = 1
  }
  keywordRatio := float64(keywordHits) / float64(wordCount)
  if keywordHits > 0 {
    riskFactors = append(riskFactors, "suspicious_language")
  }

  // Requested amount against the typical range for the policy type.
  amountAnomaly := fs.amountAnomalyScore(claim.RequestedAmount, policyType)
  if amountAnomaly > 0.5 {
    riskFactors = append(riskFactors, "unusual_amount")
  }

  // Pattern scan: conspicuously round amounts and placeholder markers.
  patternCount := 0
  if fs.roundAmountRe.MatchString(text) {
    patternCount++
    riskFactors = append(riskFactors, "round_amounts")
  }
  missingInfoCount := 0
  for _, re := range fs.missingInfoRes {
    if re.MatchString(text) {
      missingInfoCount++
    }
  }
  if missingInfoCount > 0 {
    riskFactors = append(riskFactors, "missing_information")
  }

  score := fs.weightedScore(keywordRatio, amountAnomaly, patternCount, missingInfoCount)

  return FraudAssessment{
    Score:       score,
    RiskLevel:   riskLevel(score),
    RiskFactors: riskFactors,
  }
}

func (fs *fraudScreener) amountAnomalyScore(requested float64, policyType types.PolicyType) float64 {
  thresholds, ok := fs.amountThresholds[policyType]
  if !ok {
    thresholds = fs.amountThresholds[types.PolicyTypeHealth]
  }
  switch {
  case requested < thresholds.low:
    return 0.3
  case requested > thresholds.high:
    return 0.8
  default:
    rangePosition := (requested - thresholds.low) / (thresholds.high - thresholds.low)
    deviation := rangePosition - 0.5
    if deviation < 0 {
      deviation = -deviation
    }
    if deviation > 0.2 {
      return 0.2
    }
    return deviation
  }
}

func (fs *fraudScreener) weightedScore(keywordRatio, amountAnomaly float64, patternCount, missingInfoCount int) float64 {
  type weighted struct {
    weight float64
    value  float64
  }
  features := []weighted{
    {weight: 0.35, value: clamp01(keywordRatio * 5)},
    {weight: 0.30, value: clamp01(amountAnomaly)},
    {weight: 0.20, value: clamp01(float64(patternCount) * 0.2)},
    {weight: 0.15, value: clamp01(float64(missingInfoCount) * 0.2)},
  }
  score := 0.0
  weightSum := 0.0
  for _, f := range features {
    score += f.weight * f.value
    weightSum += f.weight
  }
  if weightSum == 0 {
    return 0.5
  }
  return clamp01(score / weightSum)
}

func riskLevel(score float64) string {
  switch {
  case score < 0.3:
    return "low"
  case score < 0.7:
    return "medium"
  default:
    return "high"
  }
}

func clamp01(v float64) float64 {
  if v < 0 {
    return 0
  }
  if v > 1 {
    return 1
  }
  return v
}
