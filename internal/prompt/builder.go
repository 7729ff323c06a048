// Package prompt implements the Prompt Builder (C5): it materializes a
// final prompt string from a text window, retrieval context, and
// style/mode directives through a template registry, enforcing a hard
// character-proxy budget (spec §4.5).
package prompt

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/inkforge/quillcore/internal/document"
)

// Inputs are the structured values the builder materializes into a prompt.
type Inputs struct {
	TextWindow        string
	Kind              document.CompletionKind
	Mode              document.PromptMode
	RagContext        []document.RagChunk
	TemplateID        string
	ProjectStyle      string
	ProjectGenre      string
	ProjectPerspective string
}

// Output is the built prompt plus the metadata the caller needs to launch
// the Completion Client.
type Output struct {
	Prompt          string
	MaxOutputTokens int
	Usage           document.Usage
}

// Builder renders Inputs through a Registry under a Tokenizer for
// informational usage accounting.
type Builder struct {
	Registry  *Registry
	Estimator Tokenizer
}

func NewBuilder(registry *Registry, estimator Tokenizer) *Builder {
	if registry == nil {
		registry = NewRegistry()
	}
	if estimator == nil {
		estimator = noopEstimator{}
	}
	return &Builder{Registry: registry, Estimator: estimator}
}

var whitespaceRun = regexp.MustCompile(`[ \t]+`)
var blankLineRun = regexp.MustCompile(`\n{3,}`)

func collapseWhitespace(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = blankLineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Build renders in, enforcing the per-mode character budget via the
// ordered reduction in spec §4.5: drop rag_section, then shrink
// text_window, then shrink context_analysis.
func (b *Builder) Build(in Inputs) (Output, error) {
	body := b.Registry.Resolve(in.TemplateID, in.Mode)
	budget := budgetFor(in.Mode)

	textWindow := in.TextWindow
	ragSection := formatRagSection(in.RagContext, in.Mode)
	contextAnalysis := analyze(in.TextWindow)

	var rendered string
	for attempt := 0; attempt < 4; attempt++ {
		vars := map[string]string{
			"context_text":           textWindow,
			"type_specific_guidance": guidanceFor(in.Kind, in.Mode),
			"context_analysis":       contextAnalysis,
			"rag_section":            ragSection,
			"project_meta":           formatProjectMeta(in),
		}
		out, err := render(body, vars)
		if err != nil {
			return Output{}, fmt.Errorf("prompt: render: %w", err)
		}
		rendered = collapseWhitespace(out)
		if len([]rune(rendered)) <= budget {
			break
		}
		switch attempt {
		case 0:
			ragSection = ""
		case 1:
			textWindow = shrinkToFit(textWindow, budget)
		case 2:
			contextAnalysis = ""
		}
	}

	promptChars := len([]rune(rendered))
	return Output{
		Prompt:          rendered,
		MaxOutputTokens: maxOutputTokensFor(in.Kind, in.Mode),
		Usage: document.Usage{
			PromptChars:     promptChars,
			PromptTokensEst: b.Estimator.Estimate(rendered),
		},
	}, nil
}

// shrinkToFit keeps only the last budget/2 runes of text_window, a single
// cheap proportional cut, not exact, since the exact fit depends on the
// other rendered sections too.
func shrinkToFit(text string, budget int) string {
	runes := []rune(text)
	target := budget / 2
	if target <= 0 || len(runes) <= target {
		return text
	}
	return string(runes[len(runes)-target:])
}

func formatRagSection(chunks []document.RagChunk, mode document.PromptMode) string {
	if len(chunks) == 0 {
		return ""
	}
	label := "Relevant context"
	switch mode {
	case document.ModeFast:
		label = "Context"
	case document.ModeFull:
		label = "Relevant background and prior context"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "```%s\n", label)
	for _, c := range chunks {
		b.WriteString(c.Text)
		b.WriteString("\n")
	}
	b.WriteString("```")
	return b.String()
}

func formatProjectMeta(in Inputs) string {
	var parts []string
	if in.ProjectStyle != "" {
		parts = append(parts, "style: "+in.ProjectStyle)
	}
	if in.ProjectGenre != "" {
		parts = append(parts, "genre: "+in.ProjectGenre)
	}
	if in.ProjectPerspective != "" {
		parts = append(parts, "perspective: "+in.ProjectPerspective)
	}
	return strings.Join(parts, ", ")
}

// render executes body against vars with missingkey=zero, so any unknown
// variable renders as the empty string rather than "<no value>" (spec
// §4.5 "Unknown variables render empty" — a deliberate divergence from
// pkg/text.Renderer's default text/template behavior).
func render(body string, vars map[string]string) (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=zero").Parse(body)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, vars); err != nil {
		return "", err
	}
	return out.String(), nil
}
