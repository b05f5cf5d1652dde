package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// ErrMalformedResponse marks model output that could not be parsed into the expected shape.
var ErrMalformedResponse = ports.ErrMalformedOutput

// Scorer rates articles through the language model.
type Scorer struct {
	llm         completer
	temperature float64
	now         func() time.Time
}

var _ ports.Scorer = (*Scorer)(nil)

// NewScorer wires the scorer on top of a chat client.
func NewScorer(client *ChatGPTClient, temperature float64) *Scorer {
	return newScorer(client, temperature)
}

func newScorer(c completer, temperature float64) *Scorer {
	return &Scorer{llm: c, temperature: temperature, now: time.Now}
}

type rawScore struct {
	Relevance any `json:"relevance_score"`
	Virality  any `json:"virality_score"`
	Angles    any `json:"angles"`
	RiskFlags any `json:"risk_flags"`
	Hook      any `json:"one_line_take"`
	Keywords  any `json:"keywords"`
}

// Score asks the model for a structured judgement. Freshness is computed locally from the
// publication date rather than trusted from the model.
func (s *Scorer) Score(ctx context.Context, article domain.Article) (domain.Score, error) {
	reply, err := s.llm.Complete(ctx, scoringSystemPrompt, scoringPrompt(article), s.temperature)
	if err != nil {
		return domain.Score{}, fmt.Errorf("score %q: %w", article.Title, err)
	}

	var raw rawScore
	if err := json.Unmarshal([]byte(extractJSON(reply)), &raw); err != nil {
		return domain.Score{}, fmt.Errorf("%w: score: %v", ErrMalformedResponse, err)
	}

	relevance, err := scoreField("relevance_score", raw.Relevance)
	if err != nil {
		return domain.Score{}, err
	}
	virality, err := scoreField("virality_score", raw.Virality)
	if err != nil {
		return domain.Score{}, err
	}

	return domain.Score{
		Relevance:     clamp(relevance, 0, 10),
		Virality:      clamp(virality, 0, 10),
		FreshnessDays: article.AgeDays(s.now()),
		Angles:        stringList(raw.Angles),
		RiskFlags:     riskFlags(raw.RiskFlags),
		Hook:          strings.TrimSpace(cast.ToString(raw.Hook)),
		Keywords:      stringList(raw.Keywords),
	}, nil
}

// scoreField requires the field to be present; cast maps nil to zero.
func scoreField(name string, v any) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %s missing", ErrMalformedResponse, name)
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, name, err)
	}
	return n, nil
}

func riskFlags(v any) []domain.RiskFlag {
	var out []domain.RiskFlag
	for _, raw := range stringList(v) {
		flag := domain.ParseRiskFlag(raw)
		if flag == domain.RiskNone {
			continue
		}
		dup := false
		for _, f := range out {
			if f == flag {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, flag)
		}
	}
	return out
}

// stringList accepts a JSON list or a bare string.
func stringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{strings.TrimSpace(t)}
	}
	items, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// extractJSON trims code fences or chatter around the first JSON object.
func extractJSON(reply string) string {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return reply
	}
	return reply[start : end+1]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
