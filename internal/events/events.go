// Package events defines the progress-event protocol emitted by the
// planning pipeline and its streaming sub-components. Consumers receive a
// lazy, ordered sequence of events terminating in exactly one Complete or
// Error event.
package events

// Kind identifies the type of a pipeline event.
type Kind string

const (
	KindProgress         Kind = "progress"
	KindProfileBuilt     Kind = "profile_built"
	KindDecisionMade     Kind = "decision_made"
	KindQualityEvaluated Kind = "quality_evaluated"
	KindStructure        Kind = "structure"
	KindComplete         Kind = "complete"
	KindError            Kind = "error"

	// Streaming sub-events emitted by the generator before its terminal
	// structure event.
	KindGeneratorComplete Kind = "generator_complete"

	// Refinement round telemetry.
	KindRefineRound Kind = "refine_round"
)

// Event is one item of the pipeline's outbound stream.
type Event struct {
	Kind Kind
	Data any
}

// IsTerminal reports whether the event ends a stream.
func (e Event) IsTerminal() bool {
	return e.Kind == KindComplete || e.Kind == KindError
}

// Progress is the payload for KindProgress events.
type Progress struct {
	Stage   string `json:"stage"`
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

// ProfileBuilt is the payload for KindProfileBuilt events.
type ProfileBuilt struct {
	ProjectName          string  `json:"project_name"`
	TotalModules         int     `json:"total_modules"`
	TotalSystems         int     `json:"total_systems"`
	ComplexityScore      float64 `json:"complexity_score"`
	RecommendedPattern   string  `json:"recommended_pattern"`
	RecommendationReason string  `json:"recommendation_reason"`
}

// DecisionMade is the payload for KindDecisionMade events.
type DecisionMade struct {
	Pattern               string   `json:"pattern"`
	PatternRationale      string   `json:"pattern_rationale"`
	Layers                []string `json:"layers"`
	ModulePlacementsCount int      `json:"module_placements_count"`
	NamingConvention      string   `json:"naming_convention"`
}

// QualityEvaluated is the payload for KindQualityEvaluated events.
type QualityEvaluated struct {
	OverallScore     float64 `json:"overall_score"`
	Grade            string  `json:"grade"`
	ModuleCoverage   float64 `json:"module_coverage"`
	FileCompleteness float64 `json:"file_completeness"`
	PatternAdherence float64 `json:"pattern_adherence"`
	IssuesCount      int     `json:"issues_count"`
}

// GeneratorComplete is the payload for KindGeneratorComplete events,
// carrying aggregate counts so progress UIs do not need a second pass over
// the structure payload.
type GeneratorComplete struct {
	TotalDirectories int `json:"total_directories"`
	TotalFiles       int `json:"total_files"`
}

// RefineRound is the payload for KindRefineRound events.
type RefineRound struct {
	Round       int     `json:"round"`
	Score       float64 `json:"score"`
	Grade       string  `json:"grade"`
	IssuesFixed int     `json:"issues_fixed"`
}

// Complete is the payload for the terminal KindComplete event.
type Complete struct {
	Success             bool    `json:"success"`
	DirectoriesCreated  int     `json:"directories_created"`
	FilesCreated        int     `json:"files_created"`
	TotalModules        int     `json:"total_modules"`
	ArchitecturePattern string  `json:"architecture_pattern"`
	QualityScore        float64 `json:"quality_score"`
	QualityGrade        string  `json:"quality_grade"`
	Message             string  `json:"message"`
}

// Error is the payload for the terminal KindError event.
type Error struct {
	Message string `json:"message"`
}
