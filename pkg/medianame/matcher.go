package medianame

import (
	"regexp"

	"github.com/hbollon/go-edlib"
)

// numberRegex extracts sequence numbers from titles (e.g., "2", "3")
var numberRegex = regexp.MustCompile(`\b(\d+)\b`)

// MatchConfidence represents how closely a provider title matches a parsed title.
type MatchConfidence int

const (
	ConfidenceNone   MatchConfidence = iota // Score < 0.70
	ConfidenceLow                           // Score >= 0.70
	ConfidenceMedium                        // Score >= 0.85
	ConfidenceHigh                          // Score >= 0.95
)

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// MatchResult is the similarity between a parsed title and a provider title.
type MatchResult struct {
	Score      float64 // Jaro-Winkler similarity (0.0-1.0)
	Confidence MatchConfidence
}

// MatchTitle scores a provider title against the title parsed from disk.
// Uses Jaro-Winkler similarity on cleaned titles, nudged up when sequence
// numbers agree and down when they disagree.
func MatchTitle(parsed, candidate string) MatchResult {
	a, b := CleanTitle(parsed), CleanTitle(candidate)
	if a == "" || b == "" {
		return MatchResult{Confidence: ConfidenceNone}
	}

	score := float64(edlib.JaroWinklerSimilarity(a, b))
	score = adjustScoreForNumbers(score, numberRegex.FindAllString(a, -1), numberRegex.FindAllString(b, -1))

	res := MatchResult{Score: score}
	switch {
	case score >= 0.95:
		res.Confidence = ConfidenceHigh
	case score >= 0.85:
		res.Confidence = ConfidenceMedium
	case score >= 0.70:
		res.Confidence = ConfidenceLow
	default:
		res.Confidence = ConfidenceNone
	}
	return res
}

func adjustScoreForNumbers(score float64, parsedNums, candidateNums []string) float64 {
	if len(parsedNums) == 0 {
		return score
	}
	if len(candidateNums) == 0 {
		return score * 0.85
	}

	candidateSet := make(map[string]bool, len(candidateNums))
	for _, n := range candidateNums {
		candidateSet[n] = true
	}
	for _, n := range parsedNums {
		if candidateSet[n] {
			return min(score*1.05, 1.0)
		}
	}
	return score * 0.90
}
