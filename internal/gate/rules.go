package gate

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule flags text that violates a brand-safety constraint.
type Rule struct {
	Name   string
	Reason string
	// Hard marks defects a reviewer cannot fix by light editing.
	Hard     bool
	Violates func(text string) bool
}

// Violation is one failed rule against one field of a draft.
type Violation struct {
	Field  string
	Rule   string
	Reason string
	Hard   bool
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Reason)
}

// PatternRule builds a case-insensitive regular expression rule.
func PatternRule(name, pattern, reason string, hard bool) Rule {
	re := regexp.MustCompile(`(?i)` + pattern)
	return Rule{
		Name:     name,
		Reason:   reason,
		Hard:     hard,
		Violates: re.MatchString,
	}
}

// RequireRule fails when needle is missing. Matching ignores case when fold is set.
func RequireRule(name, needle, reason string, fold bool) Rule {
	return Rule{
		Name:   name,
		Reason: reason,
		Violates: func(text string) bool {
			if fold {
				return !strings.Contains(strings.ToLower(text), strings.ToLower(needle))
			}
			return !strings.Contains(text, needle)
		},
	}
}

// RuleSet is an ordered list of rules evaluated together.
type RuleSet []Rule

// Run evaluates every rule against text and returns the violations in rule order.
func (rs RuleSet) Run(field, text string) []Violation {
	var out []Violation
	for _, rule := range rs {
		if rule.Violates(text) {
			out = append(out, Violation{Field: field, Rule: rule.Name, Reason: rule.Reason, Hard: rule.Hard})
		}
	}
	return out
}

// BannedPhrases covers unverified-claim language and appearance-sensitive terms.
var BannedPhrases = []string{
	`study shows`,
	`research proves`,
	`scientists found`,
	`medical study`,
	`clinical trial`,
	`perfect\s+face`,
	`flawless\s+skin`,
	`celebrity\s+look`,
	`facial\s+surgery`,
	`botox`,
	`plastic\s+surgery`,
}

// StatisticPatterns match fabricated statistics.
var StatisticPatterns = []string{
	`\d+%\s+of\s+`,
	`\d+\s+out\s+of\s+\d+`,
	`studies\s+show`,
	`research\s+indicates`,
}

// BannedPhraseRules turns BannedPhrases into rules.
func BannedPhraseRules() RuleSet {
	rules := make(RuleSet, 0, len(BannedPhrases))
	for _, p := range BannedPhrases {
		rules = append(rules, PatternRule("banned_phrase", p, "banned phrase "+strings.ReplaceAll(p, `\s+`, " "), false))
	}
	return rules
}

// StatisticRules turns StatisticPatterns into hard rules.
func StatisticRules() RuleSet {
	rules := make(RuleSet, 0, len(StatisticPatterns))
	for _, p := range StatisticPatterns {
		rules = append(rules, PatternRule("invented_statistics", p, "invented statistics", true))
	}
	return rules
}
