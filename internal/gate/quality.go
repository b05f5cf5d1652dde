package gate

import (
	"fmt"

	"ContentEngine/internal/dedup"
	"ContentEngine/internal/domain"
)

// Verdict is the outcome of a gate.
type Verdict string

const (
	Pass   Verdict = "pass"
	Reject Verdict = "reject"
	Hold   Verdict = "hold"
)

// Decision is a verdict with a human-readable reason.
type Decision struct {
	Verdict    Verdict
	Reason     string
	Violations []Violation
}

// Hard reports whether any violation is a hard structural defect.
func (d Decision) Hard() bool {
	for _, v := range d.Violations {
		if v.Hard {
			return true
		}
	}
	return false
}

func pass() Decision { return Decision{Verdict: Pass} }

func reject(format string, args ...any) Decision {
	return Decision{Verdict: Reject, Reason: fmt.Sprintf(format, args...)}
}

func hold(format string, args ...any) Decision {
	return Decision{Verdict: Hold, Reason: fmt.Sprintf(format, args...)}
}

// QualityGate decides whether a scored article is worth generating drafts for.
type QualityGate struct {
	MinRelevance        int
	MinVirality         int
	MaxFreshnessDays    int
	BorderlineRelevance int
	BorderlineVirality  int
}

// NewQualityGate applies the default borderline bands of 6 and 5.
func NewQualityGate(minRelevance, minVirality, maxFreshnessDays int) QualityGate {
	return QualityGate{
		MinRelevance:        minRelevance,
		MinVirality:         minVirality,
		MaxFreshnessDays:    maxFreshnessDays,
		BorderlineRelevance: 6,
		BorderlineVirality:  5,
	}
}

var rejectingFlags = []struct {
	flag   domain.RiskFlag
	reason string
}{
	{domain.RiskMedicalClaim, "contains medical claims"},
	{domain.RiskCopyright, "copyright risk detected"},
	{domain.RiskPrivacy, "privacy risk detected"},
}

// Evaluate applies the rules in order; the first failing rule decides.
func (g QualityGate) Evaluate(article domain.Article, score domain.Score) Decision {
	if score.Relevance < g.MinRelevance {
		if score.Relevance >= g.BorderlineRelevance {
			return hold("borderline relevance: %d", score.Relevance)
		}
		return reject("relevance score too low: %d < %d", score.Relevance, g.MinRelevance)
	}

	if score.Virality < g.MinVirality {
		if score.Virality >= g.BorderlineVirality {
			return hold("borderline virality: %d", score.Virality)
		}
		return reject("virality score too low: %d < %d", score.Virality, g.MinVirality)
	}

	if score.FreshnessDays > g.MaxFreshnessDays && !dedup.IsEvergreen(article) {
		return reject("content too old: %d days > %d", score.FreshnessDays, g.MaxFreshnessDays)
	}

	for _, rf := range rejectingFlags {
		if score.HasRisk(rf.flag) {
			return reject("%s", rf.reason)
		}
	}

	for _, flag := range score.RiskFlags {
		if flag != domain.RiskNone {
			return hold("risk flags present: %s", score.RiskSummary())
		}
	}

	return pass()
}
