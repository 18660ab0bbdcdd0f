package pipeline

import (
	"testing"

	"github.com/prismfeed/prism/internal/model"
)

func srcArt(title, source string) model.Article {
	return model.Article{Title: title, SourceName: source}
}

func TestDiversifyCapsPerSource(t *testing.T) {
	in := []model.Article{
		srcArt("a1", "Alpha"),
		srcArt("a2", "Alpha"),
		srcArt("b1", "Beta"),
		srcArt("a3", "Alpha"),
		srcArt("b2", "Beta"),
		srcArt("a4", "Alpha"),
	}

	got := Diversify(in, 2)
	if len(got) != 4 {
		t.Fatalf("expected 4 articles, got %d", len(got))
	}

	counts := make(map[string]int)
	for _, a := range got {
		counts[a.SourceName]++
	}
	if counts["Alpha"] != 2 || counts["Beta"] != 2 {
		t.Errorf("per-source counts = %v, want 2 each", counts)
	}
}

func TestDiversifyPreservesOrder(t *testing.T) {
	in := []model.Article{
		srcArt("first", "Alpha"),
		srcArt("second", "Beta"),
		srcArt("third", "Alpha"),
	}

	got := Diversify(in, 1)
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if got[0].Title != "first" || got[1].Title != "second" {
		t.Errorf("order not preserved: %q, %q", got[0].Title, got[1].Title)
	}
}

func TestDiversifySourceCaseInsensitive(t *testing.T) {
	in := []model.Article{
		srcArt("one", "Alpha News"),
		srcArt("two", "ALPHA NEWS"),
		srcArt("three", "alpha news"),
	}

	got := Diversify(in, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
}

func TestDiversifyZeroCapDisablesFiltering(t *testing.T) {
	in := []model.Article{
		srcArt("one", "Alpha"),
		srcArt("two", "Alpha"),
	}

	if got := Diversify(in, 0); len(got) != 2 {
		t.Errorf("expected all articles with cap 0, got %d", len(got))
	}
}
