package prompts

import (
	"fmt"
	"sync"
)

// Registry manages versioned prompts. It implements Lookup.
type Registry struct {
	mu      sync.RWMutex
	prompts map[string]map[PromptVersion]*Prompt // ID -> Version -> Prompt
}

// NewRegistry creates a registry preloaded with the default planning
// prompts.
func NewRegistry() *Registry {
	r := &Registry{
		prompts: make(map[string]map[PromptVersion]*Prompt),
	}
	registerDefaults(r)
	return r
}

// Register registers a prompt in the registry.
func (r *Registry) Register(p *Prompt) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.prompts[p.ID] == nil {
		r.prompts[p.ID] = make(map[PromptVersion]*Prompt)
	}
	r.prompts[p.ID][p.Version] = p
}

// Get retrieves a specific version of a prompt.
func (r *Registry) Get(id string, version PromptVersion) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}
	prompt, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("prompt %s version %s not found", id, version)
	}
	return prompt, nil
}

// GetLatest retrieves the latest non-deprecated version of a prompt. If all
// versions are deprecated, the most recent one is returned anyway.
func (r *Registry) GetLatest(id string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}

	var latest *Prompt
	var latestVersion PromptVersion
	for version, prompt := range versions {
		if !prompt.Deprecated && (latest == nil || version > latestVersion) {
			latest = prompt
			latestVersion = version
		}
	}
	if latest == nil {
		for version, prompt := range versions {
			if latest == nil || version > latestVersion {
				latest = prompt
				latestVersion = version
			}
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no versions found for prompt: %s", id)
	}
	return latest, nil
}

// GetPrompt implements Lookup using the latest registered version.
func (r *Registry) GetPrompt(id string) (string, bool) {
	p, err := r.GetLatest(id)
	if err != nil {
		return "", false
	}
	return p.Content, true
}
