package index

import (
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"simple", "The quick fox", []string{"the", "quick", "fox"}},
		{"punctuation splits", "rain-soaked, cold!", []string{"rain", "soaked", "cold"}},
		{"digits split", "chapter12end", []string{"chapter", "end"}},
		{"empty", "  \t\n ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
				}
			}
		})
	}
}

func TestAddSearchRemove(t *testing.T) {
	ix := New()
	ix.Add(Chunk{DocID: "d1", BlockID: "b1", Text: "the rain fell on the harbor"})
	ix.Add(Chunk{DocID: "d1", BlockID: "b2", Text: "a dry wind crossed the plain"})

	hits := ix.Search("rain", 10)
	if len(hits) != 1 || hits[0].BlockID != "b1" {
		t.Fatalf("Search(rain) = %+v, want only b1", hits)
	}
	if hits[0].Score <= 0 {
		t.Error("hit should carry a positive score")
	}
	if hits[0].Preview != "the rain fell on the harbor" {
		t.Errorf("preview = %q", hits[0].Preview)
	}

	ix.Remove("d1", "b1")
	if hits := ix.Search("rain", 10); len(hits) != 0 {
		t.Errorf("removed block still matched: %+v", hits)
	}
	if ix.Len() != 1 {
		t.Errorf("Len = %d, want 1", ix.Len())
	}
}

func TestRemoveRestoresAverageLength(t *testing.T) {
	ix := New()
	ix.Add(Chunk{DocID: "d1", BlockID: "b1", Text: "wind over water"})
	before := ix.Search("wind", 10)[0].Score

	long := Chunk{DocID: "d1", BlockID: "b2", Text: strings.Repeat("filler words stretch the average ", 20)}
	ix.Add(long)
	ix.Remove("d1", "b2")

	after := ix.Search("wind", 10)[0].Score
	if before != after {
		t.Errorf("score drifted after add+remove: %v vs %v", before, after)
	}
	if ix.Len() != 1 {
		t.Errorf("Len = %d, want 1", ix.Len())
	}
}

func TestReAddReplaces(t *testing.T) {
	ix := New()
	ix.Add(Chunk{DocID: "d1", BlockID: "b1", Text: "old lantern light"})
	ix.Add(Chunk{DocID: "d1", BlockID: "b1", Text: "new morning sun"})

	if hits := ix.Search("lantern", 10); len(hits) != 0 {
		t.Errorf("stale text still indexed: %+v", hits)
	}
	if hits := ix.Search("morning", 10); len(hits) != 1 {
		t.Errorf("replacement text not indexed: %+v", hits)
	}
	if ix.Len() != 1 {
		t.Errorf("Len = %d, want 1", ix.Len())
	}
}

func TestRanking(t *testing.T) {
	ix := New()
	ix.Add(Chunk{DocID: "d1", BlockID: "b1", Text: "storm storm storm over the coast"})
	ix.Add(Chunk{DocID: "d1", BlockID: "b2", Text: "a storm is coming they said, though nobody believed the warning at all"})
	ix.Add(Chunk{DocID: "d1", BlockID: "b3", Text: "quiet fields under clear skies"})

	hits := ix.Search("storm", 10)
	if len(hits) != 2 {
		t.Fatalf("hits = %+v, want b1 and b2", hits)
	}
	if hits[0].BlockID != "b1" {
		t.Errorf("repeated-term short block should rank first, got %+v", hits)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("scores not descending: %v", hits)
	}
}

func TestSearchDeterministicTieBreak(t *testing.T) {
	ix := New()
	ix.Add(Chunk{DocID: "d2", BlockID: "b2", Text: "echo"})
	ix.Add(Chunk{DocID: "d1", BlockID: "b9", Text: "echo"})
	ix.Add(Chunk{DocID: "d1", BlockID: "b1", Text: "echo"})

	for i := 0; i < 5; i++ {
		hits := ix.Search("echo", 10)
		if len(hits) != 3 {
			t.Fatalf("hits = %+v", hits)
		}
		if hits[0].DocID != "d1" || hits[0].BlockID != "b1" ||
			hits[1].BlockID != "b9" || hits[2].DocID != "d2" {
			t.Fatalf("tie break unstable: %+v", hits)
		}
	}
}

func TestSearchInDocAndRemoveDoc(t *testing.T) {
	ix := New()
	ix.Add(Chunk{DocID: "d1", BlockID: "b1", Text: "the river bends north"})
	ix.Add(Chunk{DocID: "d2", BlockID: "b1", Text: "the river runs dry"})

	hits := ix.SearchInDoc("d2", "river", 10)
	if len(hits) != 1 || hits[0].DocID != "d2" {
		t.Fatalf("SearchInDoc = %+v, want only d2", hits)
	}

	ix.RemoveDoc("d1")
	if hits := ix.Search("river", 10); len(hits) != 1 || hits[0].DocID != "d2" {
		t.Errorf("RemoveDoc left stragglers: %+v", hits)
	}
}

func TestSearchLimitsAndEmptyQuery(t *testing.T) {
	ix := New()
	for _, id := range []string{"b1", "b2", "b3"} {
		ix.Add(Chunk{DocID: "d1", BlockID: id, Text: "shared words here"})
	}
	if hits := ix.Search("shared", 2); len(hits) != 2 {
		t.Errorf("limit ignored: %+v", hits)
	}
	if hits := ix.Search("", 10); hits != nil {
		t.Errorf("empty query should return nil, got %+v", hits)
	}
	if hits := ix.Search("...", 10); hits != nil {
		t.Errorf("query with no tokens should return nil, got %+v", hits)
	}
}

func TestPreviewCutsAtWordBoundary(t *testing.T) {
	long := strings.Repeat("meandering sentence parts ", 20)
	ix := New()
	ix.Add(Chunk{DocID: "d1", BlockID: "b1", Text: long})

	p := ix.Search("meandering", 1)[0].Preview
	if !strings.HasSuffix(p, "…") {
		t.Errorf("long preview should be elided: %q", p)
	}
	body := strings.TrimSuffix(p, "…")
	if strings.HasSuffix(body, " ") || len(body) > previewLen {
		t.Errorf("preview not cut at a word boundary: %q", p)
	}
}
