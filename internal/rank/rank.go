// Package rank re-orders an article batch against a caller-supplied
// personalization profile. Input articles are never mutated; the output
// carries the composite score and its component breakdown.
package rank

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/prismfeed/prism/internal/model"
)

// Component weights. Lean alignment sits below recency and interest so
// personalization never fully overrides topical relevance.
const (
	recencyWindow    = 12 * time.Hour
	recencyDefault   = 0.6 // when publishedAt is absent
	videoBonus       = 0.3
	interestPerMatch = 0.25
	interestCap      = 1.0
	leanAlignWeight  = 0.4
	centristWeight   = 0.2
	maxLeanDistance  = 2.0
)

// Components is the per-article score breakdown.
type Components struct {
	Recency       float64 `json:"recency"`
	Video         float64 `json:"video"`
	Interest      float64 `json:"interest"`
	LeanAlignment float64 `json:"leanAlignment"`
}

// Scored is an article plus its composite score.
type Scored struct {
	model.Article
	RankScore float64    `json:"rankScore"`
	Breakdown Components `json:"rankBreakdown"`
}

// Personalize computes composite scores and stable-sorts descending, so
// original relative order is the tie-break.
func Personalize(articles []model.Article, profile model.Profile) []Scored {
	return personalizeAt(articles, profile, time.Now())
}

func personalizeAt(articles []model.Article, profile model.Profile, now time.Time) []Scored {
	interests := normalizeInterests(profile.Interests)

	scored := make([]Scored, len(articles))
	for i, a := range articles {
		c := Components{
			Recency:       recencyScore(a.PublishedAt, now),
			Video:         videoScore(a),
			Interest:      interestScore(a, interests),
			LeanAlignment: leanScore(a.LeanScore, profile),
		}
		scored[i] = Scored{
			Article:   a,
			RankScore: c.Recency + c.Video + c.Interest + c.LeanAlignment,
			Breakdown: c,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RankScore > scored[j].RankScore
	})
	return scored
}

// recencyScore decays linearly from 1.0 at publish time to 0.0 at the
// window edge.
func recencyScore(published time.Time, now time.Time) float64 {
	if published.IsZero() {
		return recencyDefault
	}
	age := now.Sub(published)
	if age < 0 {
		age = 0
	}
	score := 1 - float64(age)/float64(recencyWindow)
	if score < 0 {
		return 0
	}
	return score
}

func videoScore(a model.Article) float64 {
	if len(a.Media.Videos) > 0 {
		return videoBonus
	}
	return 0
}

func interestScore(a model.Article, interests []string) float64 {
	if len(interests) == 0 {
		return 0
	}
	text := strings.ToLower(a.Title + " " + a.Description + " " + a.Content)
	matches := 0
	for _, kw := range interests {
		if strings.Contains(text, kw) {
			matches++
		}
	}
	score := interestPerMatch * float64(matches)
	if score > interestCap {
		return interestCap
	}
	return score
}

// leanScore applies the lean-alignment component. Distance between the
// article's lean and the desired lean is clamped to [0, 2] and mapped to
// [0, 1]; reinforce rewards closeness, challenge rewards distance, and
// balanced (or a missing desired lean) gives a smaller centrist bonus.
func leanScore(articleLean float64, profile model.Profile) float64 {
	if profile.DesiredLean == nil || profile.Mode == model.ModeBalanced {
		centrism := 1 - math.Min(math.Abs(articleLean), 1)
		return centristWeight * centrism
	}

	distance := math.Abs(articleLean - *profile.DesiredLean)
	if distance > maxLeanDistance {
		distance = maxLeanDistance
	}
	normalized := distance / maxLeanDistance

	switch profile.Mode {
	case model.ModeReinforce:
		return leanAlignWeight * (1 - normalized)
	case model.ModeChallenge:
		return leanAlignWeight * normalized
	default:
		centrism := 1 - math.Min(math.Abs(articleLean), 1)
		return centristWeight * centrism
	}
}

func normalizeInterests(interests []string) []string {
	out := make([]string, 0, len(interests))
	for _, kw := range interests {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
