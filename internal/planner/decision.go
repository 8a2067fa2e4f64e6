package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ChamsBouzaiene/planforge/internal/project"
)

// Per-pattern naming policies. Fixed strings so the decision stays
// deterministic and comparable across runs.
const (
	namingLayered      = "snake_case files; layer prefix in package names; interfaces suffixed with their role"
	namingFeatureBased = "snake_case files; one package per feature; shared code under shared/"
	namingSimple       = "snake_case files; flat src/ package; descriptive filenames"
)

// Decide resolves an architecture pattern and places every module into
// exactly one layer. It is pure and deterministic: the same profile,
// modules and preference always produce a deep-equal Decision.
//
// Pattern precedence: a valid user preference wins, then the profile's
// recommendation, then PatternSimple as the safe default.
func Decide(profile *Profile, modules []project.Module, preference Pattern) (*Decision, error) {
	if profile == nil {
		return nil, fmt.Errorf("decision requires a profile")
	}
	if len(modules) == 0 {
		return nil, &project.ValidationError{Field: "modules", Reason: "no modules to place"}
	}

	pattern := PatternSimple
	rationale := "defaulting to a flat structure"
	switch {
	case preference != "":
		if _, err := ParsePattern(string(preference)); err != nil {
			return nil, err
		}
		pattern = preference
		rationale = fmt.Sprintf("user requested the %s pattern", preference)
	case profile.RecommendedPattern != "":
		pattern = profile.RecommendedPattern
		rationale = profile.RecommendationReason
	}

	d := &Decision{
		Pattern:          pattern,
		PatternRationale: rationale,
		ModulePlacements: make(map[int]Placement, len(modules)),
	}

	switch pattern {
	case PatternLayered:
		d.RootPath = "src"
		d.NamingConvention = namingLayered
		d.Layers = []Layer{
			{Name: "domain", Path: "src/domain", Description: "Core business entities and rules"},
			{Name: "application", Path: "src/application", Description: "Use cases and orchestration"},
			{Name: "infrastructure", Path: "src/infrastructure", Description: "Persistence, transport, external services"},
			{Name: "interface", Path: "src/interface", Description: "Inbound adapters: APIs, CLIs, handlers"},
		}
		placeLayered(d, modules)
	case PatternFeatureBased:
		d.RootPath = "src"
		d.NamingConvention = namingFeatureBased
		placeFeatureBased(d, modules)
	default:
		d.RootPath = "src"
		d.NamingConvention = namingSimple
		d.Layers = []Layer{
			{Name: "src", Path: "src", Description: "All project code"},
		}
		for _, m := range modules {
			d.ModulePlacements[m.Number] = Placement{Module: m.Name, Layer: "src", Path: "src"}
		}
	}

	return d, nil
}

// layerKeywords maps module-name hints to layered-architecture tiers.
// Checked in order so the assignment is deterministic.
var layerKeywords = []struct {
	layer    string
	keywords []string
}{
	{"interface", []string{"api", "cli", "ui", "gateway", "handler", "endpoint", "view"}},
	{"infrastructure", []string{"db", "database", "store", "storage", "repo", "cache", "queue", "client", "adapter"}},
	{"application", []string{"service", "usecase", "workflow", "pipeline", "manager", "orchestr"}},
	{"domain", []string{"model", "entity", "core", "domain", "rule"}},
}

// placeLayered assigns each module to a layer by name keywords, falling
// back to round-robin across layers so nothing is dropped.
func placeLayered(d *Decision, modules []project.Module) {
	layerPath := make(map[string]string, len(d.Layers))
	for _, l := range d.Layers {
		layerPath[l.Name] = l.Path
	}

	next := 0
	for _, m := range modules {
		layer := ""
		lower := strings.ToLower(m.Name)
		for _, lk := range layerKeywords {
			for _, kw := range lk.keywords {
				if strings.Contains(lower, kw) {
					layer = lk.layer
					break
				}
			}
			if layer != "" {
				break
			}
		}
		if layer == "" {
			layer = d.Layers[next%len(d.Layers)].Name
			next++
		}
		d.ModulePlacements[m.Number] = Placement{Module: m.Name, Layer: layer, Path: layerPath[layer]}
	}
}

// placeFeatureBased derives one layer per declared system (slugged), with a
// shared layer for ungrouped modules. Layers are sorted by name so the
// result is stable regardless of input order.
func placeFeatureBased(d *Decision, modules []project.Module) {
	features := make(map[string][]project.Module)
	for _, m := range modules {
		feature := slug(m.System)
		if feature == "" {
			feature = "shared"
		}
		features[feature] = append(features[feature], m)
	}

	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := "src/" + name
		d.Layers = append(d.Layers, Layer{
			Name:        name,
			Path:        path,
			Description: fmt.Sprintf("Feature area: %s", name),
		})
		for _, m := range features[name] {
			d.ModulePlacements[m.Number] = Placement{Module: m.Name, Layer: name, Path: path}
		}
	}
}

// slug lowercases a system name and replaces separators with underscores.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '/', r == '.':
			return '_'
		}
		return -1
	}, s)
	return strings.Trim(s, "_")
}
