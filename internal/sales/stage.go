package sales

import "strings"

type Stage int

const (
	StageOther Stage = iota
	StageWon
	StageLost
)

func (s Stage) String() string {
	switch s {
	case StageWon:
		return "won"
	case StageLost:
		return "lost"
	}
	return "other"
}

// StageClassifier maps free-text CRM pipeline stages to won, lost or other by keyword.
type StageClassifier struct {
	won  []string
	lost []string
}

func NewStageClassifier(won, lost []string) *StageClassifier {
	return &StageClassifier{won: normalizeKeywords(won), lost: normalizeKeywords(lost)}
}

// Classify checks won keywords first, so a stage matching both is won.
func (c *StageClassifier) Classify(stage string) Stage {
	s := strings.ToLower(strings.TrimSpace(stage))
	if s == "" {
		return StageOther
	}
	for _, k := range c.won {
		if strings.Contains(s, k) {
			return StageWon
		}
	}
	for _, k := range c.lost {
		if strings.Contains(s, k) {
			return StageLost
		}
	}
	return StageOther
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}
