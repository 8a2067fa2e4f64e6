package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ChamsBouzaiene/planforge/internal/events"
	"github.com/ChamsBouzaiene/planforge/internal/llm"
	"github.com/ChamsBouzaiene/planforge/internal/prompts"
)

// Generator drives the LLM to turn an architecture decision into a concrete
// directory/file structure. It performs no persistence; the orchestrator
// owns that.
type Generator struct {
	LLM     llm.Client
	Prompts prompts.Lookup
	UserID  string

	// Knobs forwarded to the provider. Zero values use provider defaults.
	Temperature float32
	MaxTokens   int
}

// Generate produces a StructureDraft in one shot. Contract: every module in
// decision.ModulePlacements is represented by at least one directory, and
// no path escapes decision.RootPath. Unparsable LLM output is returned as a
// *ParseError the caller may retry on.
func (g *Generator) Generate(ctx context.Context, profile *Profile, decision *Decision) (*StructureDraft, error) {
	if g.LLM == nil {
		return nil, fmt.Errorf("generator requires an LLM client")
	}

	system := g.systemPrompt(decision)
	user := describeDecision(profile, decision)

	reply, err := g.LLM.Complete(ctx, llm.Request{
		System:      system,
		Messages:    []llm.ChatMessage{{Role: llm.RoleUser, Content: user}},
		Temperature: g.Temperature,
		MaxTokens:   g.MaxTokens,
		UserID:      g.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("structure generation call failed: %w", err)
	}

	draft, err := ParseStructure(reply)
	if err != nil {
		return nil, err
	}

	normalizeDraft(draft, decision)
	return draft, nil
}

// GenerateStream runs Generate as a lazy event sequence: progress events,
// then a generator_complete event with aggregate counts, then the terminal
// structure event. On failure the stream ends with a single error event.
func (g *Generator) GenerateStream(ctx context.Context, profile *Profile, decision *Decision) <-chan events.Event {
	ch := make(chan events.Event)
	go func() {
		defer close(ch)

		ch <- events.Event{Kind: events.KindProgress, Data: events.Progress{
			Stage:   "generator",
			Phase:   "phase3_generating",
			Message: "asking the model for a directory structure",
		}}

		draft, err := g.Generate(ctx, profile, decision)
		if err != nil {
			ch <- events.Event{Kind: events.KindError, Data: events.Error{Message: err.Error()}}
			return
		}

		ch <- events.Event{Kind: events.KindGeneratorComplete, Data: events.GeneratorComplete{
			TotalDirectories: len(draft.Directories),
			TotalFiles:       len(draft.Files),
		}}
		ch <- events.Event{Kind: events.KindStructure, Data: draft}
	}()
	return ch
}

// systemPrompt resolves the generation prompt from the lookup capability,
// falling back to a minimal built-in when absent, and fills its variables.
func (g *Generator) systemPrompt(decision *Decision) string {
	text, ok := "", false
	if g.Prompts != nil {
		text, ok = g.Prompts.GetPrompt(prompts.PromptStructureGeneration)
	}
	if !ok {
		text = "You are a software architect. Respond with a single JSON object " +
			"containing directories, files, shared_modules and architecture_notes. " +
			"Keep every path under {{root_path}} and follow: {{naming_convention}}."
	}
	return prompts.NewBuilderFrom(text).
		SetVariable("root_path", decision.RootPath).
		SetVariable("naming_convention", decision.NamingConvention).
		Build()
}

// describeDecision renders the profile and decision as the user message.
func describeDecision(profile *Profile, decision *Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", profile.ProjectName)
	fmt.Fprintf(&b, "Modules: %d, systems: %d, complexity: %.1f\n",
		profile.TotalModules, profile.TotalSystems, profile.ComplexityScore)
	fmt.Fprintf(&b, "Architecture pattern: %s (%s)\n", decision.Pattern, decision.PatternRationale)
	fmt.Fprintf(&b, "Root path: %s\n\nLayers:\n", decision.RootPath)
	for _, l := range decision.Layers {
		fmt.Fprintf(&b, "- %s (%s): %s\n", l.Name, l.Path, l.Description)
	}

	b.WriteString("\nModule placements:\n")
	numbers := make([]int, 0, len(decision.ModulePlacements))
	for n := range decision.ModulePlacements {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		p := decision.ModulePlacements[n]
		fmt.Fprintf(&b, "- module %d %q -> layer %s (%s)\n", n, p.Module, p.Layer, p.Path)
	}

	if len(profile.DependencyEdges) > 0 {
		edges, _ := json.Marshal(profile.DependencyEdges)
		fmt.Fprintf(&b, "\nDependency edges: %s\n", edges)
	}
	return b.String()
}

// normalizeDraft enforces the generator contract on a parsed draft: carry
// the decision's root path, clamp stray paths under it, and backfill a
// directory for any placement the model missed.
func normalizeDraft(draft *StructureDraft, decision *Decision) {
	draft.RootPath = decision.RootPath

	for i := range draft.Directories {
		draft.Directories[i].Path = clampPath(draft.Directories[i].Path, decision.RootPath)
	}
	for i := range draft.Files {
		draft.Files[i].Path = clampPath(draft.Files[i].Path, decision.RootPath)
	}

	covered := make(map[int]bool)
	for _, d := range draft.Directories {
		covered[d.ModuleNumber] = true
	}
	for _, f := range draft.Files {
		covered[f.ModuleNumber] = true
	}

	numbers := make([]int, 0, len(decision.ModulePlacements))
	for n := range decision.ModulePlacements {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		if covered[n] {
			continue
		}
		p := decision.ModulePlacements[n]
		draft.Directories = append(draft.Directories, DirectorySpec{
			Path:         path.Join(p.Path, slug(p.Module)),
			Description:  fmt.Sprintf("Module %s", p.Module),
			ModuleNumber: n,
		})
	}
}

// clampPath rewrites p so it lives under root.
func clampPath(p, root string) string {
	p = path.Clean(strings.TrimPrefix(strings.TrimSpace(p), "/"))
	if p == "." || p == "" {
		return root
	}
	if p == root || strings.HasPrefix(p, root+"/") {
		return p
	}
	return path.Join(root, p)
}
