package contextextractor

import (
	"strings"

	"github.com/inkforge/quillcore/internal/document"
)

// classifyKind inspects the text immediately preceding the cursor (spec §4.3).
func classifyKind(full string, cursorPos int) document.CompletionKind {
	runes := []rune(full)
	if cursorPos > len(runes) {
		cursorPos = len(runes)
	}
	before := string(runes[:cursorPos])

	if strings.HasSuffix(before, "@char:") {
		return document.KindCharacter
	}
	if strings.HasSuffix(before, "@location:") {
		return document.KindLocation
	}
	if strings.HasSuffix(before, "@time:") {
		return document.KindTime
	}

	tail := lastNRunes(before, 20)
	if strings.ContainsRune(tail, '@') {
		return document.KindMetadataTag
	}

	currentLine := currentLineOf(before)
	if strings.HasPrefix(strings.TrimLeft(currentLine, " \t"), "#") {
		return document.KindHeading
	}

	lines := strings.Split(before, "\n")
	if len(lines) >= 2 {
		last := lines[len(lines)-1]
		prior := lines[len(lines)-2]
		if strings.TrimSpace(last) == "" && strings.TrimSpace(prior) != "" {
			return document.KindParagraph
		}
	}

	if hasUnmatchedOpenQuote(currentParagraphOf(before)) {
		return document.KindDialogue
	}

	return document.KindText
}

func lastNRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func currentLineOf(before string) string {
	idx := strings.LastIndexByte(before, '\n')
	if idx < 0 {
		return before
	}
	return before[idx+1:]
}

func currentParagraphOf(before string) string {
	idx := strings.LastIndex(before, "\n\n")
	if idx < 0 {
		return before
	}
	return before[idx+2:]
}

// hasUnmatchedOpenQuote reports whether paragraph has an odd count of a
// quote character, i.e. an opening quote with no matching close.
func hasUnmatchedOpenQuote(paragraph string) bool {
	straight := strings.Count(paragraph, `"`)
	if straight%2 == 1 {
		return true
	}
	open := strings.Count(paragraph, "“")
	close := strings.Count(paragraph, "”")
	if open > close {
		return true
	}
	openCN := strings.Count(paragraph, "「")
	closeCN := strings.Count(paragraph, "」")
	return openCN > closeCN
}
