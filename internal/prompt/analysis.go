package prompt

import "strings"

// emotion lexicon counts approximate tone; not exhaustive, just enough to
// bias type_specific_guidance phrasing (spec §4.5 "tone (from emotion
// lexicon counts)").
var emotionLexicon = map[string][]string{
	"tense":      {"fear", "afraid", "danger", "threat", "scream", "panic", "terror"},
	"somber":     {"grief", "sorrow", "loss", "mourn", "tears", "funeral"},
	"joyful":     {"laugh", "joy", "smile", "delight", "celebrat", "happy"},
	"romantic":   {"love", "kiss", "embrace", "longing", "heart"},
	"suspenseful": {"shadow", "whisper", "silence", "creak", "watched"},
}

var sceneTransitionCues = []string{
	"meanwhile", "later that", "the next morning", "hours later", "days later",
	"back at", "elsewhere", "* * *", "---",
}

// analyze produces the short inferred hints feeding context_analysis.
func analyze(windowText string) string {
	lower := strings.ToLower(windowText)

	tone := dominantTone(lower)
	var parts []string
	if tone != "" {
		parts = append(parts, "tone: "+tone)
	}
	if dialogueInProgress(windowText) {
		parts = append(parts, "dialogue in progress")
	}
	if hasSceneTransitionCue(lower) {
		parts = append(parts, "recent scene transition")
	}
	return strings.Join(parts, "; ")
}

func dominantTone(lower string) string {
	best, bestCount := "", 0
	for tone, words := range emotionLexicon {
		count := 0
		for _, w := range words {
			count += strings.Count(lower, w)
		}
		if count > bestCount {
			best, bestCount = tone, count
		}
	}
	return best
}

func dialogueInProgress(text string) bool {
	straight := strings.Count(text, `"`)
	if straight%2 == 1 {
		return true
	}
	open := strings.Count(text, "“")
	close_ := strings.Count(text, "”")
	return open > close_
}

func hasSceneTransitionCue(lower string) bool {
	tail := lower
	if len(tail) > 400 {
		tail = tail[len(tail)-400:]
	}
	for _, cue := range sceneTransitionCues {
		if strings.Contains(tail, cue) {
			return true
		}
	}
	return false
}
