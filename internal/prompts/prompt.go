// Package prompts manages the versioned prompt texts the planner sends to
// the LLM, and the lookup capability injected into pipeline components.
package prompts

// PromptVersion represents a version identifier for prompts.
type PromptVersion string

const (
	// PromptV1 is the first version of prompts.
	PromptV1 PromptVersion = "1.0.0"
)

// Prompt represents a versioned prompt with metadata.
type Prompt struct {
	ID          string        // Unique identifier (e.g., "structure_generation")
	Version     PromptVersion // Version of this prompt
	Content     string        // The actual prompt text
	Description string        // Human-readable description
	Deprecated  bool          // True if this version is deprecated
}

// Lookup is the narrow prompt-lookup capability pipeline components
// consume. The second return is false when the prompt is absent; callers
// fall back to their built-in default.
type Lookup interface {
	GetPrompt(id string) (string, bool)
}
