package prompt

import "github.com/inkforge/quillcore/internal/document"

// Template is one registry entry: an id and a per-mode body.
type Template struct {
	ID     string
	Bodies map[document.PromptMode]string
}

const defaultTemplateID = "default"

// builtinBody is the fallback body used for every mode when no sharper
// per-mode body is registered; kept short since Fast mode has the
// tightest character budget (spec §4.5: Fast ≤ 2000 chars).
const builtinBody = `{{.context_analysis}}
{{.type_specific_guidance}}
{{.project_meta}}
---
{{.context_text}}
{{.rag_section}}`

// Registry resolves a template_id_for_mode to a Template, falling back to a
// built-in default for missing or invalid ids (spec §4.5 "Template
// resolution").
type Registry struct {
	templates map[string]*Template
}

func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]*Template)}
	r.Register(&Template{
		ID: defaultTemplateID,
		Bodies: map[document.PromptMode]string{
			document.ModeFast:     builtinBody,
			document.ModeBalanced: builtinBody,
			document.ModeFull:     builtinBody,
		},
	})
	return r
}

func (r *Registry) Register(t *Template) { r.templates[t.ID] = t }

// Resolve returns the body for (id, mode), falling back to the built-in
// default template when id is empty, unknown, or lacks a body for mode.
func (r *Registry) Resolve(id string, mode document.PromptMode) string {
	if tmpl, ok := r.templates[id]; ok {
		if body, ok := tmpl.Bodies[mode]; ok && body != "" {
			return body
		}
	}
	def := r.templates[defaultTemplateID]
	if body, ok := def.Bodies[mode]; ok {
		return body
	}
	return builtinBody
}
