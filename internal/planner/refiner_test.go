package planner

import (
	"context"
	"fmt"
	"testing"

	"github.com/ChamsBouzaiene/planforge/internal/events"
)

// refinerFixture returns a decision with two placed modules and a draft
// covering only one of them, which scores well below the threshold.
func refinerFixture() (*Profile, *Decision, *StructureDraft) {
	profile := &Profile{ProjectName: "shop", TotalModules: 2}
	decision := &Decision{
		Pattern:  PatternSimple,
		RootPath: "src",
		Layers:   []Layer{{Name: "src", Path: "src"}},
		ModulePlacements: map[int]Placement{
			1: {Module: "catalog", Layer: "src", Path: "src"},
			2: {Module: "orders", Layer: "src", Path: "src"},
		},
	}
	// Module 2 is missing and src/legacy is empty, so the draft scores
	// 0.4*0.5 + 0.3*0.5 + 0.3*1.0 = 0.65, below the default threshold.
	draft := &StructureDraft{
		RootPath: "src",
		Directories: []DirectorySpec{
			{Path: "src/catalog", ModuleNumber: 1},
			{Path: "src/legacy", ModuleNumber: 1},
		},
		Files: []FileSpec{{Path: "src/catalog", Filename: "catalog.go", ModuleNumber: 1}},
	}
	return profile, decision, draft
}

const fixedDraftJSON = `{
	"directories": [
		{"path": "src/catalog", "module_number": 1},
		{"path": "src/orders", "module_number": 2}
	],
	"files": [
		{"path": "src/catalog", "filename": "catalog.go", "module_number": 1},
		{"path": "src/orders", "filename": "orders.go", "module_number": 2}
	]
}`

func TestRefineStopsWhenThresholdMet(t *testing.T) {
	profile, decision, draft := refinerFixture()
	// Make the initial draft perfect.
	draft.Directories = append(draft.Directories, DirectorySpec{Path: "src/orders", ModuleNumber: 2})
	draft.Files = append(draft.Files, FileSpec{Path: "src/orders", Filename: "orders.go", ModuleNumber: 2})

	fake := &fakeLLM{replies: []string{fixedDraftJSON}}
	r := &Refiner{LLM: fake}

	_, metrics, summary := r.Refine(context.Background(), profile, decision, draft, nil)
	if summary.Rounds != 0 {
		t.Errorf("expected 0 rounds for a passing draft, got %d", summary.Rounds)
	}
	if fake.calls != 0 {
		t.Errorf("expected no LLM calls, got %d", fake.calls)
	}
	if metrics.OverallScore < DefaultScoreThreshold {
		t.Errorf("unexpected score %f", metrics.OverallScore)
	}
}

func TestRefineImprovesAndReports(t *testing.T) {
	profile, decision, draft := refinerFixture()
	r := &Refiner{LLM: &fakeLLM{replies: []string{fixedDraftJSON}}}

	var rounds []events.Event
	best, metrics, summary := r.Refine(context.Background(), profile, decision, draft,
		func(ev events.Event) { rounds = append(rounds, ev) })

	if summary.Rounds != 1 {
		t.Fatalf("expected 1 round, got %d", summary.Rounds)
	}
	if summary.FinalScore <= summary.InitialScore {
		t.Errorf("expected improvement, got %f -> %f", summary.InitialScore, summary.FinalScore)
	}
	if summary.Improvement != summary.FinalScore-summary.InitialScore {
		t.Errorf("inconsistent improvement: %+v", summary)
	}
	if len(best.Directories) != 2 || len(best.Files) != 2 {
		t.Errorf("expected patched draft, got %+v", best)
	}
	if metrics.OverallScore != summary.FinalScore {
		t.Errorf("metrics/summary mismatch: %f vs %f", metrics.OverallScore, summary.FinalScore)
	}
	if len(rounds) != 1 || rounds[0].Kind != events.KindRefineRound {
		t.Errorf("expected one refine_round event, got %+v", rounds)
	}
}

func TestRefineKeepsBestSeenNotLast(t *testing.T) {
	profile, decision, draft := refinerFixture()

	// First patch fixes everything; second patch regresses to an empty
	// structure. The refiner must return the first patch's draft.
	regression := `{"directories": [], "files": []}`
	r := &Refiner{
		LLM:            &fakeLLM{replies: []string{fixedDraftJSON, regression}},
		ScoreThreshold: 1.1, // unreachable, forces all rounds to run
		MaxRounds:      2,
	}

	best, metrics, summary := r.Refine(context.Background(), profile, decision, draft, nil)
	if summary.Rounds != 2 {
		t.Fatalf("expected 2 rounds, got %d", summary.Rounds)
	}
	if len(best.Files) != 2 {
		t.Errorf("refiner returned a regressed draft: %+v", best)
	}
	if metrics.OverallScore != summary.FinalScore {
		t.Errorf("final score must match the returned draft's score")
	}
	if summary.FinalScore < summary.InitialScore {
		t.Errorf("best-seen tracking lost ground: %f -> %f", summary.InitialScore, summary.FinalScore)
	}
}

func TestRefineRoundTelemetryTracksPreviousRound(t *testing.T) {
	profile, decision, draft := refinerFixture()

	// Round 1 fixes both issues; rounds 2 and 3 each regress to the same
	// empty structure. Each round's IssuesFixed compares against the round
	// before it, not against the best round seen.
	regression := `{"directories": [], "files": []}`
	r := &Refiner{
		LLM:            &fakeLLM{replies: []string{fixedDraftJSON, regression, regression}},
		ScoreThreshold: 1.1, // unreachable, forces all rounds to run
		MaxRounds:      3,
	}

	var rounds []events.RefineRound
	r.Refine(context.Background(), profile, decision, draft, func(ev events.Event) {
		if d, ok := ev.Data.(events.RefineRound); ok {
			rounds = append(rounds, d)
		}
	})
	if len(rounds) != 3 {
		t.Fatalf("expected 3 rounds, got %d", len(rounds))
	}
	if rounds[0].IssuesFixed != 2 {
		t.Errorf("round 1 fixed both initial issues, got %d", rounds[0].IssuesFixed)
	}
	if rounds[1].IssuesFixed != -2 {
		t.Errorf("round 2 introduced two empty directories, got %d", rounds[1].IssuesFixed)
	}
	if rounds[2].IssuesFixed != 0 {
		t.Errorf("round 3 changed nothing against round 2, got %d", rounds[2].IssuesFixed)
	}
}

func TestRefineSurvivesFailingRounds(t *testing.T) {
	profile, decision, draft := refinerFixture()
	r := &Refiner{LLM: &fakeLLM{err: fmt.Errorf("provider down")}, MaxRounds: 3}

	best, _, summary := r.Refine(context.Background(), profile, decision, draft, nil)
	if summary.Rounds != 0 {
		t.Errorf("failed rounds must not count, got %d", summary.Rounds)
	}
	if best == nil || len(best.Directories) != 2 {
		t.Errorf("expected the original draft back, got %+v", best)
	}
	if summary.FinalScore != summary.InitialScore {
		t.Errorf("score should be unchanged: %+v", summary)
	}
}

func TestRefineRespectsRoundBudget(t *testing.T) {
	profile, decision, draft := refinerFixture()
	// Every patch returns the same still-failing draft.
	failing := `{"directories": [{"path": "src/catalog", "module_number": 1}], "files": []}`
	fake := &fakeLLM{replies: []string{failing}}
	r := &Refiner{LLM: fake, MaxRounds: 3}

	_, _, summary := r.Refine(context.Background(), profile, decision, draft, nil)
	if summary.Rounds > 3 {
		t.Errorf("round budget exceeded: %d", summary.Rounds)
	}
	if fake.calls > 3 {
		t.Errorf("expected at most 3 LLM calls, got %d", fake.calls)
	}
}

func TestRefineStreamTerminatesWithStructure(t *testing.T) {
	profile, decision, draft := refinerFixture()
	r := &Refiner{LLM: &fakeLLM{replies: []string{fixedDraftJSON}}}

	var kinds []events.Kind
	var last events.Event
	for ev := range r.RefineStream(context.Background(), profile, decision, draft) {
		kinds = append(kinds, ev.Kind)
		last = ev
	}
	if last.Kind != events.KindStructure {
		t.Errorf("expected terminal structure event, got %v", kinds)
	}
	if _, ok := last.Data.(*StructureDraft); !ok {
		t.Errorf("structure event should carry the draft, got %T", last.Data)
	}
}
