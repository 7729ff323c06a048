// Package ghosttext implements the Ghost-Text State Machine (C7): the
// incremental diff that turns a raw model suggestion into a display
// suffix, anchored overlay rendering, and the Idle/Requesting/Displayed
// transition table (spec §4.7).
package ghosttext

import "strings"

// suffixCheckLengths are the decreasing suffix lengths checked against the
// suggestion's prefix (spec §4.7 step 2), cross-checked literally against
// original_source's calculate_completion (`check_length in [100, 50, 30,
// 20, 10, 5]`).
var suffixCheckLengths = []int{100, 50, 30, 20, 10, 5}

const lastNCharsSearch = 20
const displayCap = 200
const truncateSearchWindow = 150
const truncateMinPunctPos = 100

var knownPrefixes = []string{"Continuation:", "continuation:"}

// Diff computes the display text for a raw suggestion given the buffer
// text up to the cursor (spec §4.7 "Incremental diff").
func Diff(beforeCursor string, rawSuggestion string) string {
	suggestion := strings.TrimSpace(rawSuggestion)
	for _, prefix := range knownPrefixes {
		if strings.HasPrefix(suggestion, prefix) {
			suggestion = strings.TrimSpace(suggestion[len(prefix):])
			break
		}
	}
	if suggestion == "" {
		return ""
	}

	beforeRunes := []rune(beforeCursor)
	suggestionRunes := []rune(suggestion)

	for _, n := range suffixCheckLengths {
		if len(beforeRunes) < n {
			continue
		}
		recent := string(beforeRunes[len(beforeRunes)-n:])
		if strings.HasPrefix(suggestion, recent) {
			rest := strings.TrimSpace(suggestion[len(recent):])
			if rest != "" {
				return capRunes(rest, displayCap)
			}
		}
	}

	if len(beforeRunes) > lastNCharsSearch {
		recent := string(beforeRunes[len(beforeRunes)-lastNCharsSearch:])
		if idx := strings.Index(suggestion, recent); idx >= 0 {
			after := idx + len(recent)
			if after < len(suggestion) {
				rest := strings.TrimSpace(suggestion[after:])
				if rest != "" {
					return capRunes(rest, displayCap)
				}
			}
		}
	}

	if len(suggestionRunes) <= displayCap {
		return suggestion
	}
	return truncateAtSentenceBoundary(suggestionRunes)
}

func capRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var sentenceTerminators = []rune{'。', '！', '？', '，', '；', '\n'}

// truncateAtSentenceBoundary mirrors the original's rfind-over-punctuation
// cutoff: search the first truncateSearchWindow runes for the last
// occurrence of a terminator beyond truncateMinPunctPos, else hard-cut.
func truncateAtSentenceBoundary(suggestion []rune) string {
	window := suggestion
	if len(window) > truncateSearchWindow {
		window = window[:truncateSearchWindow]
	}

	best := -1
	for i, r := range window {
		for _, term := range sentenceTerminators {
			if r == term && i > truncateMinPunctPos {
				best = i
			}
		}
	}
	if best >= 0 {
		return string(suggestion[:best+1])
	}
	return string(window)
}
