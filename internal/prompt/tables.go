package prompt

import "github.com/inkforge/quillcore/internal/document"

// charBudget is the hard per-mode character-proxy cap (spec §4.5).
var charBudget = map[document.PromptMode]int{
	document.ModeFast:     2000,
	document.ModeBalanced: 8000,
	document.ModeFull:     25000,
}

// maxOutputTokens is the static (kind, mode) table handed back to the
// caller alongside the built prompt (spec §4.5 "Max output tokens").
var maxOutputTokens = map[document.CompletionKind]map[document.PromptMode]int{
	document.KindText: {
		document.ModeFast: 60, document.ModeBalanced: 150, document.ModeFull: 300,
	},
	document.KindDialogue: {
		document.ModeFast: 50, document.ModeBalanced: 120, document.ModeFull: 250,
	},
	document.KindDescription: {
		document.ModeFast: 80, document.ModeBalanced: 200, document.ModeFull: 400,
	},
	document.KindHeading: {
		document.ModeFast: 15, document.ModeBalanced: 25, document.ModeFull: 40,
	},
	document.KindCharacter: {
		document.ModeFast: 20, document.ModeBalanced: 40, document.ModeFull: 80,
	},
	document.KindLocation: {
		document.ModeFast: 20, document.ModeBalanced: 40, document.ModeFull: 80,
	},
	document.KindTime: {
		document.ModeFast: 15, document.ModeBalanced: 30, document.ModeFull: 50,
	},
	document.KindMetadataTag: {
		document.ModeFast: 10, document.ModeBalanced: 20, document.ModeFull: 30,
	},
	document.KindParagraph: {
		document.ModeFast: 80, document.ModeBalanced: 220, document.ModeFull: 450,
	},
}

// typeGuidance is the static (kind, mode) instruction table feeding
// type_specific_guidance (spec §4.5).
var typeGuidance = map[document.CompletionKind]map[document.PromptMode]string{
	document.KindText: {
		document.ModeFast:     "Continue the prose naturally for a short span.",
		document.ModeBalanced: "Continue the prose naturally, maintaining voice and pacing.",
		document.ModeFull:     "Continue the prose with full attention to voice, pacing, and foreshadowing already present in the context.",
	},
	document.KindDialogue: {
		document.ModeFast:     "Continue the line of dialogue in the speaker's voice.",
		document.ModeBalanced: "Continue the dialogue exchange, staying in character and responsive to the scene.",
		document.ModeFull:     "Continue the dialogue exchange with full attention to character voice, subtext, and scene dynamics.",
	},
	document.KindDescription: {
		document.ModeFast:     "Extend the description with a few concrete sensory details.",
		document.ModeBalanced: "Extend the description with vivid, concrete sensory detail consistent with the established setting.",
		document.ModeFull:     "Extend the description with vivid sensory detail, tightly consistent with established setting and mood.",
	},
	document.KindHeading: {
		document.ModeFast:     "Suggest a brief chapter or section heading.",
		document.ModeBalanced: "Suggest a chapter or section heading fitting the work's style.",
		document.ModeFull:     "Suggest a chapter or section heading fitting the work's style and structure so far.",
	},
	document.KindCharacter: {
		document.ModeFast:     "Suggest a character name fitting the setting.",
		document.ModeBalanced: "Suggest a character name consistent with the setting and naming conventions already used.",
		document.ModeFull:     "Suggest a character name consistent with the setting, culture, and naming conventions already used.",
	},
	document.KindLocation: {
		document.ModeFast:     "Suggest a location name fitting the setting.",
		document.ModeBalanced: "Suggest a location name consistent with the established world.",
		document.ModeFull:     "Suggest a location name consistent with the established world and geography.",
	},
	document.KindTime: {
		document.ModeFast:     "Suggest a time or date reference fitting the scene.",
		document.ModeBalanced: "Suggest a time or date reference consistent with the story's timeline.",
		document.ModeFull:     "Suggest a time or date reference consistent with the story's established timeline.",
	},
	document.KindMetadataTag: {
		document.ModeFast:     "Complete the metadata tag with a short, exact value.",
		document.ModeBalanced: "Complete the metadata tag with a short, exact value matching prior usage.",
		document.ModeFull:     "Complete the metadata tag with a short, exact value matching all prior usage in the manuscript.",
	},
	document.KindParagraph: {
		document.ModeFast:     "Open the next paragraph naturally.",
		document.ModeBalanced: "Open the next paragraph, advancing the scene or beat naturally.",
		document.ModeFull:     "Open the next paragraph, advancing the scene or beat naturally and in step with recent pacing.",
	},
}

func budgetFor(mode document.PromptMode) int {
	if b, ok := charBudget[mode]; ok {
		return b
	}
	return charBudget[document.ModeBalanced]
}

func maxOutputTokensFor(kind document.CompletionKind, mode document.PromptMode) int {
	if byMode, ok := maxOutputTokens[kind]; ok {
		if v, ok := byMode[mode]; ok {
			return v
		}
	}
	return 150
}

func guidanceFor(kind document.CompletionKind, mode document.PromptMode) string {
	if byMode, ok := typeGuidance[kind]; ok {
		if v, ok := byMode[mode]; ok {
			return v
		}
	}
	return "Continue naturally in the established style."
}
