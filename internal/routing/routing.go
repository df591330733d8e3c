// Package routing classifies question difficulty and picks a generation model.
package routing

import "strings"

type Tier int

const (
	TierSimple Tier = iota + 1
	TierMedium
	TierHard
)

func (t Tier) String() string {
	switch t {
	case TierSimple:
		return "simple"
	case TierMedium:
		return "medium"
	case TierHard:
		return "hard"
	default:
		return "unknown"
	}
}

// Structural cues score one point, advanced cues two. A cue counts once per
// question no matter how often it appears.
var (
	structuralCues = []string{"join", "group by", "sum", "average", "per", "between", "filter on", "nested"}
	advancedCues   = []string{"rank", "window", "partition", "recursive", "cte", "top", "advanced", "correlated"}
)

func Score(question string) int {
	q := strings.ToLower(question)
	score := 0
	for _, cue := range structuralCues {
		if strings.Contains(q, cue) {
			score++
		}
	}
	for _, cue := range advancedCues {
		if strings.Contains(q, cue) {
			score += 2
		}
	}
	return score
}

func Classify(question string) Tier {
	score := Score(question)
	switch {
	case score == 0:
		return TierSimple
	case score <= 3:
		return TierMedium
	default:
		return TierHard
	}
}

// Models maps each tier to a generation backend model name.
type Models struct {
	Simple string
	Medium string
	Hard   string
}

func (m Models) For(tier Tier) string {
	switch tier {
	case TierMedium:
		return m.Medium
	case TierHard:
		return m.Hard
	default:
		return m.Simple
	}
}
