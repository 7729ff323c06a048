package ghosttext

import "testing"

func TestDiffDetectsSuffixRepeatAtLongestLength(t *testing.T) {
	before := "The dragon flew over the ancient castle walls at dawn, wings cutting through mist that clung to the stones like memory itself lingering"
	suggestion := before[len(before)-100:] + " and vanished into the clouds beyond the mountains"
	got := Diff(before, suggestion)
	if got != "and vanished into the clouds beyond the mountains" {
		t.Fatalf("unexpected diff: %q", got)
	}
}

func TestDiffFallsBackToLast20CharsSearch(t *testing.T) {
	before := "she whispered into the darkness"
	suggestion := "As " + before[len(before)-20:] + ", the shadows answered back"
	got := Diff(before, suggestion)
	if got != ", the shadows answered back" {
		t.Fatalf("unexpected diff: %q", got)
	}
}

func TestDiffReturnsWholeSuggestionWhenNoOverlap(t *testing.T) {
	before := "completely different text"
	suggestion := "a brand new sentence with no overlap at all"
	got := Diff(before, suggestion)
	if got != suggestion {
		t.Fatalf("expected full suggestion, got %q", got)
	}
}

func TestDiffEmptySuggestionReturnsEmpty(t *testing.T) {
	if got := Diff("anything", "   "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestDiffStripsKnownPrefix(t *testing.T) {
	before := "the story continues"
	got := Diff(before, "Continuation: and grows darker still")
	if got != "and grows darker still" {
		t.Fatalf("expected prefix stripped, got %q", got)
	}
}

func TestDiffTruncatesOverlongSuggestionAtSentenceBoundary(t *testing.T) {
	long := ""
	for i := 0; i < 40; i++ {
		long += "word "
	}
	long += "。more words after the period that should be dropped by truncation"
	got := Diff("unrelated prior text", long)
	if len([]rune(got)) > 200 {
		t.Fatalf("expected capped at 200 runes, got %d", len([]rune(got)))
	}
}
