// Package lean assigns a heuristic political-lean label and score to an
// article. Scoring is deterministic and total: every input, including
// empty text and an unknown source, yields a valid result.
package lean

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prismfeed/prism/internal/model"
)

// Result carries the bucketed label, the raw score in [-1, 1] (negative
// leans left) and the signals that contributed.
type Result struct {
	Label   string   `json:"label"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// sourcePriors is an ordered list so that longer, more specific outlet
// names match before generic substrings.
var sourcePriors = []struct {
	Match string
	Score float64
}{
	{"washington examiner", 0.5},
	{"wall street journal", 0.3},
	{"new york times", -0.35},
	{"washington post", -0.35},
	{"national review", 0.6},
	{"the federalist", 0.75},
	{"mother jones", -0.7},
	{"daily caller", 0.7},
	{"daily wire", 0.8},
	{"the nation", -0.7},
	{"associated press", 0.0},
	{"breitbart", 0.9},
	{"huffpost", -0.6},
	{"huffington", -0.6},
	{"newsmax", 0.85},
	{"jacobin", -0.9},
	{"guardian", -0.4},
	{"politico", -0.15},
	{"nytimes", -0.35},
	{"reuters", 0.0},
	{"apnews", 0.0},
	{"the hill", 0.1},
	{"msnbc", -0.7},
	{"nypost", 0.5},
	{"axios", -0.1},
	{"oann", 0.9},
	{"fox", 0.6},
	{"cnn", -0.35},
	{"npr", -0.3},
	{"vox", -0.6},
	{"wsj", 0.3},
	{"bbc", -0.1},
}

// Keyword phrase weights. A positive weight pushes right, negative left.
var keywordSignals = map[string]float64{
	// left-coded framing
	"climate crisis":       -0.25,
	"gun control":          -0.2,
	"social justice":       -0.25,
	"universal healthcare": -0.3,
	"medicare for all":     -0.3,
	"reproductive rights":  -0.3,
	"wealth inequality":    -0.25,
	"systemic racism":      -0.3,
	"green new deal":       -0.35,
	"voting rights":        -0.15,
	"workers' rights":      -0.2,
	"labor union":          -0.2,
	"far-right":            -0.2,

	// right-coded framing
	"illegal immigration": 0.25,
	"border crisis":       0.3,
	"second amendment":    0.3,
	"gun rights":          0.25,
	"pro-life":            0.3,
	"religious freedom":   0.2,
	"small government":    0.25,
	"tax cuts":            0.2,
	"radical left":        0.4,
	"law and order":       0.2,
	"traditional values":  0.25,
	"free market":         0.2,
	"deep state":          0.4,
	"woke agenda":         0.4,
	"far-left":            0.2,
}

const keywordCap = 0.5 // keyword signal alone never dominates a strong prior

// Score combines a source-reputation prior with keyword signal from the
// article text.
func Score(text, sourceName, rawURL string) Result {
	var (
		score   float64
		reasons []string
	)

	identity := strings.ToLower(sourceName + " " + rawURL)
	for _, p := range sourcePriors {
		if strings.Contains(identity, p.Match) {
			score = p.Score
			reasons = append(reasons, fmt.Sprintf("source prior %q (%+.2f)", p.Match, p.Score))
			break
		}
	}

	lowered := strings.ToLower(text)
	var keywordSum float64
	for phrase, weight := range keywordSignals {
		if strings.Contains(lowered, phrase) {
			keywordSum += weight
		}
	}
	keywordSum = clamp(keywordSum, -keywordCap, keywordCap)
	if keywordSum != 0 {
		// Reasons list each matched phrase; iterate again in a stable way.
		for _, phrase := range sortedPhrases() {
			if strings.Contains(lowered, phrase) {
				reasons = append(reasons, fmt.Sprintf("keyword %q (%+.2f)", phrase, keywordSignals[phrase]))
			}
		}
		score += keywordSum
	}

	score = clamp(score, -1, 1)
	return Result{Label: Bucket(score), Score: score, Reasons: reasons}
}

// SourceLean classifies from the source identity alone.
func SourceLean(sourceName string) Result {
	return Score("", sourceName, "")
}

// Bucket maps a score to its label.
func Bucket(score float64) string {
	switch {
	case score <= -0.4:
		return model.LeanLeft
	case score < -0.1:
		return model.LeanLeanLeft
	case score < 0.1:
		return model.LeanCenter
	case score < 0.4:
		return model.LeanLeanRight
	default:
		return model.LeanRight
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var phraseOrder = func() []string {
	phrases := make([]string, 0, len(keywordSignals))
	for phrase := range keywordSignals {
		phrases = append(phrases, phrase)
	}
	sort.Strings(phrases)
	return phrases
}()

func sortedPhrases() []string {
	return phraseOrder
}
