package prompts

import (
	"fmt"
	"strings"
)

// Builder composes a prompt from fragments and {{variable}} substitutions.
type Builder struct {
	fragments []string
	variables map[string]string
}

// NewBuilder creates a builder seeded with a registered prompt's content.
func NewBuilder(registry *Registry, id string) (*Builder, error) {
	base, err := registry.GetLatest(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get base prompt: %w", err)
	}
	return NewBuilderFrom(base.Content), nil
}

// NewBuilderFrom creates a builder seeded with raw prompt content, for
// callers that resolved the text through a Lookup instead of the registry.
func NewBuilderFrom(content string) *Builder {
	return &Builder{
		fragments: []string{content},
		variables: make(map[string]string),
	}
}

// AddFragment appends a fragment to the prompt.
func (b *Builder) AddFragment(text string) *Builder {
	b.fragments = append(b.fragments, text)
	return b
}

// SetVariable sets a variable for template substitution.
func (b *Builder) SetVariable(key, value string) *Builder {
	b.variables[key] = value
	return b
}

// Build constructs the final prompt string.
func (b *Builder) Build() string {
	result := strings.Join(b.fragments, "\n\n")
	for key, value := range b.variables {
		result = strings.ReplaceAll(result, fmt.Sprintf("{{%s}}", key), value)
	}
	return result
}
