// Package planner implements the three-phase architecture planning core:
// profiling raw project facts, deciding an architecture pattern, generating
// a concrete directory/file structure via an LLM, scoring it, and refining
// it in a closed loop until it is good enough.
package planner

import (
	"fmt"

	"github.com/ChamsBouzaiene/planforge/internal/project"
)

// Pattern is the architecture pattern a project is planned against.
type Pattern string

const (
	PatternLayered      Pattern = "layered"
	PatternFeatureBased Pattern = "feature_based"
	PatternSimple       Pattern = "simple"
)

// ParsePattern validates a user-supplied pattern string.
func ParsePattern(s string) (Pattern, error) {
	switch Pattern(s) {
	case PatternLayered, PatternFeatureBased, PatternSimple:
		return Pattern(s), nil
	}
	return "", fmt.Errorf("unknown architecture pattern: %q", s)
}

// Profile is the derived fingerprint of a project. Built once per pipeline
// run and never mutated afterwards.
type Profile struct {
	ProjectName          string                   `json:"project_name"`
	TotalModules         int                      `json:"total_modules"`
	TotalSystems         int                      `json:"total_systems"`
	DependencyEdges      []project.DependencyEdge `json:"module_dependency_edges"`
	ComplexityScore      float64                  `json:"complexity_score"`
	RecommendedPattern   Pattern                  `json:"recommended_pattern,omitempty"`
	RecommendationReason string                   `json:"recommendation_reason"`
}

// Layer is one tier of the chosen architecture.
type Layer struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Placement assigns a module to a layer.
type Placement struct {
	Module string `json:"module"`
	Layer  string `json:"layer"`
	Path   string `json:"path"`
}

// Decision is the resolved architecture for a project: pattern, layers and
// a placement for every module. Deterministic given the same profile and
// preference.
type Decision struct {
	Pattern          Pattern           `json:"pattern"`
	PatternRationale string            `json:"pattern_rationale"`
	Layers           []Layer           `json:"layers"`
	ModulePlacements map[int]Placement `json:"module_placements"`
	NamingConvention string            `json:"naming_convention"`
	RootPath         string            `json:"root_path"`
}

// DirectorySpec is one flat directory entry produced by the generator.
type DirectorySpec struct {
	Path         string `json:"path"`
	Description  string `json:"description"`
	ModuleNumber int    `json:"module_number"`
}

// FileSpec is one flat file entry produced by the generator.
type FileSpec struct {
	Path         string `json:"path"`
	Filename     string `json:"filename"`
	FileType     string `json:"file_type"`
	Language     string `json:"language"`
	Description  string `json:"description"`
	Purpose      string `json:"purpose"`
	Priority     string `json:"priority"`
	ModuleNumber int    `json:"module_number"`
}

// StructureDraft is the generator's product: a flat list of directories and
// files. Refinement replaces the whole draft each round rather than patching
// it in place, so each round's input and output stay auditable.
type StructureDraft struct {
	RootPath          string          `json:"root_path"`
	Directories       []DirectorySpec `json:"directories"`
	Files             []FileSpec      `json:"files"`
	SharedModules     []string        `json:"shared_modules,omitempty"`
	ArchitectureNotes string          `json:"architecture_notes,omitempty"`
}

// IssueCategory tags a quality defect so the refiner can act on it.
type IssueCategory string

const (
	IssueMissingModule  IssueCategory = "missing_module"
	IssueEmptyDirectory IssueCategory = "empty_directory"
	IssueOutOfLayer     IssueCategory = "out_of_layer_path"
)

// Issue is one concrete defect found during evaluation.
type Issue struct {
	Category     IssueCategory `json:"category"`
	ModuleNumber int           `json:"module_number,omitempty"`
	Path         string        `json:"path,omitempty"`
	Message      string        `json:"message"`
}

// Metrics is the result of one quality evaluation. Recomputed fresh on
// every call, never mutated after construction.
type Metrics struct {
	OverallScore     float64 `json:"overall_score"`
	ModuleCoverage   float64 `json:"module_coverage"`
	FileCompleteness float64 `json:"file_completeness"`
	PatternAdherence float64 `json:"pattern_adherence"`
	Issues           []Issue `json:"issues"`
	Grade            string  `json:"grade"`
}

// PlannedFile is the nested-tree form of a FileSpec.
type PlannedFile struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	FileType     string `json:"file_type"`
	Language     string `json:"language"`
	Description  string `json:"description"`
	Purpose      string `json:"purpose"`
	Priority     string `json:"priority"`
	ModuleNumber int    `json:"module_number"`
}

// PlannedDirectory is the nested-tree form of a DirectorySpec.
type PlannedDirectory struct {
	Name         string              `json:"name"`
	Path         string              `json:"path"`
	NodeType     string              `json:"node_type"`
	Description  string              `json:"description"`
	ModuleNumber int                 `json:"module_number"`
	Files        []PlannedFile       `json:"files"`
	Children     []*PlannedDirectory `json:"children"`
}
