package model

import (
	"strings"
	"time"
)

// Lean labels assigned by the scorer, left to right.
const (
	LeanLeft      = "left"
	LeanLeanLeft  = "lean-left"
	LeanCenter    = "center"
	LeanLeanRight = "lean-right"
	LeanRight     = "right"
)

// Image is a single embedded image reference.
type Image struct {
	Src string `json:"src"`
}

// Video is a normalized embeddable video descriptor. Kind is "youtube",
// "vimeo", "file" or "iframe" for unrecognized embeds.
type Video struct {
	Kind      string `json:"kind"`
	Src       string `json:"src"`
	Type      string `json:"type,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Media groups the images and videos discovered in article markup.
type Media struct {
	Images []Image `json:"images"`
	Videos []Video `json:"videos"`
}

// Article is the canonical unit flowing through the pipeline. URL is the
// stable identity; dedup, diversify and cache all key on it.
type Article struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"contentHtml"`
	SourceName  string    `json:"sourceName"`
	PublishedAt time.Time `json:"publishedAt"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Media       Media     `json:"media"`

	// Derived by the pipeline.
	Summary     string   `json:"summary,omitempty"`
	Category    string   `json:"category,omitempty"`
	Lean        string   `json:"lean,omitempty"`
	LeanScore   float64  `json:"leanScore"`
	LeanReasons []string `json:"leanReasons,omitempty"`
	ReadTime    int      `json:"readTime,omitempty"`
}

// Topic is a trending term with its occurrence count.
type Topic struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Preference modes controlling the lean-alignment ranking component.
const (
	ModeBalanced  = "balanced"
	ModeReinforce = "reinforce"
	ModeChallenge = "challenge"
)

// ParseMode maps a caller-supplied preference string to a known mode.
// Unknown values behave as balanced.
func ParseMode(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ModeReinforce:
		return ModeReinforce
	case ModeChallenge:
		return ModeChallenge
	default:
		return ModeBalanced
	}
}

// Profile is the caller-supplied personalization input. It is consumed per
// request and never persisted.
type Profile struct {
	Interests   []string
	DesiredLean *float64
	Mode        string
}

// EstimateReadTime returns reading minutes at roughly 200 words per minute,
// never less than one minute for non-empty text.
func EstimateReadTime(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	minutes := (words + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
