package domain

import "strings"

// RiskFlag enumerates compliance risks reported by the scorer.
type RiskFlag string

const (
	RiskNone                RiskFlag = "none"
	RiskMedicalClaim        RiskFlag = "medical claim"
	RiskCopyright           RiskFlag = "copyright"
	RiskPrivacy             RiskFlag = "privacy"
	RiskUnverifiedBenchmark RiskFlag = "unverified benchmark"
)

// ParseRiskFlag maps free-form scorer output to a known flag. Unknown values become RiskNone.
func ParseRiskFlag(raw string) RiskFlag {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", " ", "_", " ").Replace(normalized)
	switch RiskFlag(normalized) {
	case RiskMedicalClaim, RiskCopyright, RiskPrivacy, RiskUnverifiedBenchmark:
		return RiskFlag(normalized)
	default:
		return RiskNone
	}
}

// Score is the structured judgement produced once per article.
type Score struct {
	Relevance     int        `json:"relevance_score"`
	Virality      int        `json:"virality_score"`
	FreshnessDays int        `json:"freshness_days"`
	Angles        []string   `json:"angles"`
	RiskFlags     []RiskFlag `json:"risk_flags"`
	Hook          string     `json:"one_line_take"`
	Keywords      []string   `json:"keywords"`
}

// HasRisk reports whether flag is present.
func (s Score) HasRisk(flag RiskFlag) bool {
	for _, f := range s.RiskFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// RiskSummary renders flags as a comma separated list, "none" when empty.
func (s Score) RiskSummary() string {
	if len(s.RiskFlags) == 0 {
		return string(RiskNone)
	}
	parts := make([]string, 0, len(s.RiskFlags))
	for _, f := range s.RiskFlags {
		parts = append(parts, string(f))
	}
	return strings.Join(parts, ", ")
}
