// Package contextextractor implements the Context Extractor (C3): bounded
// text window selection and completion-kind classification (spec §4.3).
package contextextractor

import (
	"regexp"
	"strings"

	"github.com/inkforge/quillcore/internal/document"
)

// maxWindowChars per prompt mode (spec §4.3: Fast ≈ 3k, Balanced ≈ 6k, Full ≈ 12k).
var maxWindowChars = map[document.PromptMode]int{
	document.ModeFast:     3000,
	document.ModeBalanced: 6000,
	document.ModeFull:     12000,
}

var chapterBoundary = regexp.MustCompile(`(?m)^(#{1,3}\s|第.+章|Chapter \d+)`)

// Window is the extracted bounded text window around the cursor.
type Window struct {
	Text string
	Kind document.CompletionKind
}

// Extract produces the bounded window and completion-kind classification
// for a cursor at cursorPos within full (spec §4.3).
func Extract(full string, cursorPos int, mode document.PromptMode) Window {
	runes := []rune(full)
	if cursorPos < 0 {
		cursorPos = 0
	}
	if cursorPos > len(runes) {
		cursorPos = len(runes)
	}

	chapter := chapterBounds(full, cursorPos)
	cap := maxWindowChars[mode]
	if cap == 0 {
		cap = maxWindowChars[document.ModeBalanced]
	}

	text := clipToCap(chapter, cursorPos, cap)
	kind := classifyKind(full, cursorPos)
	return Window{Text: text, Kind: kind}
}

// chapterRange is a [start,end) rune-index range, and the cursor's offset
// relative to start.
type chapterRange struct {
	start, end, cursorOffset int
	runes                    []rune
}

// chapterBounds finds the enclosing chapter via heading markers, falling
// back to a fixed radius around the cursor when no boundary is found.
func chapterBounds(full string, cursorPos int) chapterRange {
	runes := []rune(full)
	locs := chapterBoundary.FindAllStringIndex(full, -1)
	if len(locs) == 0 {
		const radius = 4000
		start := cursorPos - radius
		if start < 0 {
			start = 0
		}
		end := cursorPos + radius
		if end > len(runes) {
			end = len(runes)
		}
		return chapterRange{start: start, end: end, cursorOffset: cursorPos - start, runes: runes}
	}

	// Convert byte offsets from regexp matches to rune offsets.
	byteToRune := make(map[int]int, len(locs))
	runeIdx := 0
	byteIdx := 0
	for _, r := range full {
		byteToRune[byteIdx] = runeIdx
		byteIdx += len(string(r))
		runeIdx++
	}
	byteToRune[byteIdx] = runeIdx

	boundaries := make([]int, 0, len(locs))
	for _, loc := range locs {
		boundaries = append(boundaries, byteToRune[loc[0]])
	}

	start := 0
	end := len(runes)
	for i, b := range boundaries {
		if b > cursorPos {
			end = b
			break
		}
		start = b
	}
	return chapterRange{start: start, end: end, cursorOffset: cursorPos - start, runes: runes}
}

// clipToCap symmetrically clips the chapter range around the cursor down to
// cap characters, preferring breaks at blank lines then sentence terminators.
func clipToCap(cr chapterRange, cursorPos int, cap int) string {
	chapter := cr.runes[cr.start:cr.end]
	if len(chapter) <= cap {
		return string(chapter)
	}

	cursorInChapter := cursorPos - cr.start
	half := cap / 2
	lo := cursorInChapter - half
	hi := cursorInChapter + half
	if lo < 0 {
		hi -= lo
		lo = 0
	}
	if hi > len(chapter) {
		lo -= hi - len(chapter)
		hi = len(chapter)
		if lo < 0 {
			lo = 0
		}
	}

	lo = preferBreak(chapter, lo, true)
	hi = preferBreak(chapter, hi, false)
	if lo < 0 {
		lo = 0
	}
	if hi > len(chapter) {
		hi = len(chapter)
	}
	if lo >= hi {
		return string(chapter[max0(cursorInChapter-cap/2, 0):min(cursorInChapter+cap/2, len(chapter))])
	}
	return string(chapter[lo:hi])
}

// preferBreak nudges idx outward (toward the chapter edges, away from the
// cursor) to the nearest blank line, then sentence terminator, within a
// small search radius, so the clip doesn't cut mid-sentence when avoidable.
func preferBreak(chapter []rune, idx int, searchingBackward bool) int {
	const radius = 200
	lo := idx - radius
	hi := idx + radius
	if lo < 0 {
		lo = 0
	}
	if hi > len(chapter) {
		hi = len(chapter)
	}

	// Prefer a blank line (two consecutive newlines).
	for i := idx; i >= lo && i < hi && i > 0; {
		if searchingBackward {
			if i-1 >= 0 && chapter[i-1] == '\n' && (i == 0 || (i-2 >= 0 && chapter[i-2] == '\n')) {
				return i
			}
			i--
		} else {
			if i < len(chapter) && chapter[i] == '\n' && i+1 < len(chapter) && chapter[i+1] == '\n' {
				return i
			}
			i++
		}
	}
	// Fall back to a sentence terminator.
	terms := "。！？.!?"
	for i := idx; i >= lo && i < hi && i >= 0 && i < len(chapter); {
		if strings.ContainsRune(terms, chapter[i]) {
			if searchingBackward {
				return i + 1
			}
			return i + 1
		}
		if searchingBackward {
			i--
		} else {
			i++
		}
	}
	return idx
}

func max0(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
