package planner

import (
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/planforge/internal/project"
)

// Complexity scoring weights. The score is a bounded composite of module
// count, dependency-edge count and blueprint richness, saturating at
// maxComplexity.
const (
	moduleWeight  = 0.5
	edgeWeight    = 0.3
	maxComplexity = 10.0
)

// BuildProfile derives a Profile from raw project facts. It is a pure
// function: no I/O, no LLM calls. It fails only on malformed input, and
// always before any downstream work starts.
func BuildProfile(p *project.Project) (*Profile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	edges := p.Edges()
	score := complexityScore(len(p.Modules), len(edges), p.Blueprint)
	pattern, reason := recommendPattern(len(p.Modules), len(p.Systems), len(edges))

	return &Profile{
		ProjectName:          p.Name,
		TotalModules:         len(p.Modules),
		TotalSystems:         len(p.Systems),
		DependencyEdges:      edges,
		ComplexityScore:      score,
		RecommendedPattern:   pattern,
		RecommendationReason: reason,
	}, nil
}

// complexityScore combines module count, edge count and free-text richness
// into a saturating [0, maxComplexity] score.
func complexityScore(modules, edges int, blueprint string) float64 {
	score := float64(modules)*moduleWeight + float64(edges)*edgeWeight

	// Blueprint richness adds up to 2 points: presence, then length.
	text := strings.TrimSpace(blueprint)
	if text != "" {
		score += 1.0
		if len(text) > 500 {
			score += 1.0
		} else {
			score += float64(len(text)) / 500.0
		}
	}

	if score > maxComplexity {
		return maxComplexity
	}
	if score < 0 {
		return 0
	}
	return score
}

// recommendPattern applies fixed threshold rules to pick an architecture
// pattern. The first rule that fires wins; its description becomes the
// recommendation reason.
func recommendPattern(modules, systems, edges int) (Pattern, string) {
	density := 0.0
	if modules > 0 {
		density = float64(edges) / float64(modules)
	}

	switch {
	case modules <= 4 && edges == 0:
		return PatternSimple, fmt.Sprintf(
			"%d modules with no cross-dependencies: a flat structure is enough", modules)
	case systems >= 3 && density < 1.0:
		return PatternFeatureBased, fmt.Sprintf(
			"%d loosely-coupled systems (dependency density %.2f): group by feature", systems, density)
	case density >= 1.0 || modules >= 10:
		return PatternLayered, fmt.Sprintf(
			"%d modules with %d dependency edges: dense coupling calls for strict layers", modules, edges)
	default:
		return PatternSimple, fmt.Sprintf(
			"%d modules with light coupling: keep the structure flat", modules)
	}
}
