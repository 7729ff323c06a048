package triggergate

import "github.com/inkforge/quillcore/internal/document"

// Config mirrors the completion.* options from spec §6 that govern gating.
type Config struct {
	Mode                document.CompletionMode
	CompletionEnabled   bool
	DebounceMs          int
	ThrottleMs          int
	MinChars            int
	PunctuationAssist   bool
	PromptMode          document.PromptMode
	AutoChain           bool
}

// DefaultConfig matches the common defaults implied across spec §4.2/§6.
func DefaultConfig() Config {
	return Config{
		Mode:              document.CompletionAutoAI,
		CompletionEnabled: true,
		DebounceMs:        300,
		ThrottleMs:        1000,
		MinChars:          1,
		PunctuationAssist: true,
		PromptMode:        document.ModeBalanced,
		AutoChain:         false,
	}
}
