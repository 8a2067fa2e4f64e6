// Package project defines the raw project facts the planning pipeline
// consumes: systems, modules, declared dependencies and a free-text
// blueprint.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// System is a declared grouping of modules (e.g. "billing", "auth").
type System struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Module is one unit of the project to be placed in the planned structure.
type Module struct {
	Number      int      `json:"number"`
	Name        string   `json:"name"`
	System      string   `json:"system,omitempty"`
	Description string   `json:"description,omitempty"`
	DependsOn   []string `json:"depends_on,omitempty"`
}

// DependencyEdge is a flattened directed dependency between two modules.
type DependencyEdge struct {
	FromModule string `json:"from_module"`
	ToModule   string `json:"to_module"`
}

// Project is the full pipeline input.
type Project struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Blueprint string   `json:"blueprint,omitempty"`
	Systems   []System `json:"systems,omitempty"`
	Modules   []Module `json:"modules"`
}

// ValidationError reports malformed pipeline input. It is returned before
// any LLM call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid project input: %s: %s", e.Field, e.Reason)
}

// Load reads a project definition from a JSON file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project file: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// Validate checks structural requirements before planning starts.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Reason: "project name is required"}
	}
	if len(p.Modules) == 0 {
		return &ValidationError{Field: "modules", Reason: "at least one module is required"}
	}

	names := make(map[string]bool, len(p.Modules))
	numbers := make(map[int]bool, len(p.Modules))
	for i, m := range p.Modules {
		if strings.TrimSpace(m.Name) == "" {
			return &ValidationError{
				Field:  fmt.Sprintf("modules[%d].name", i),
				Reason: "module name is required",
			}
		}
		if numbers[m.Number] {
			return &ValidationError{
				Field:  fmt.Sprintf("modules[%d].number", i),
				Reason: fmt.Sprintf("duplicate module number %d", m.Number),
			}
		}
		numbers[m.Number] = true
		names[m.Name] = true
	}

	for i, m := range p.Modules {
		for _, dep := range m.DependsOn {
			if !names[dep] {
				return &ValidationError{
					Field:  fmt.Sprintf("modules[%d].depends_on", i),
					Reason: fmt.Sprintf("unknown module %q", dep),
				}
			}
		}
	}

	return nil
}

// Edges flattens per-module DependsOn lists into directed dependency edges,
// preserving declaration order.
func (p *Project) Edges() []DependencyEdge {
	var edges []DependencyEdge
	for _, m := range p.Modules {
		for _, dep := range m.DependsOn {
			edges = append(edges, DependencyEdge{FromModule: m.Name, ToModule: dep})
		}
	}
	return edges
}
