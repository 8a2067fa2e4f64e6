package planner

import (
	"testing"
)

func evalFixture() (*Profile, *Decision, *StructureDraft) {
	profile := &Profile{ProjectName: "t", TotalModules: 2}
	decision := &Decision{
		Pattern:  PatternSimple,
		RootPath: "src",
		Layers:   []Layer{{Name: "src", Path: "src"}},
		ModulePlacements: map[int]Placement{
			1: {Module: "catalog", Layer: "src", Path: "src"},
			2: {Module: "orders", Layer: "src", Path: "src"},
		},
	}
	draft := &StructureDraft{
		RootPath: "src",
		Directories: []DirectorySpec{
			{Path: "src/catalog", ModuleNumber: 1},
			{Path: "src/orders", ModuleNumber: 2},
		},
		Files: []FileSpec{
			{Path: "src/catalog", Filename: "catalog.go", ModuleNumber: 1},
			{Path: "src/orders", Filename: "orders.go", ModuleNumber: 2},
		},
	}
	return profile, decision, draft
}

func TestEvaluatePerfectStructure(t *testing.T) {
	m := Evaluate(evalFixture())
	if m.OverallScore != 1.0 {
		t.Errorf("expected 1.0, got %f", m.OverallScore)
	}
	if m.Grade != "A" {
		t.Errorf("expected grade A, got %s", m.Grade)
	}
	if len(m.Issues) != 0 {
		t.Errorf("expected no issues, got %+v", m.Issues)
	}
}

func TestEvaluateMissingModule(t *testing.T) {
	profile, decision, draft := evalFixture()
	// Drop every reference to module 2.
	draft.Directories = draft.Directories[:1]
	draft.Files = draft.Files[:1]

	m := Evaluate(profile, decision, draft)
	if m.ModuleCoverage >= 1.0 {
		t.Errorf("expected coverage below 1.0, got %f", m.ModuleCoverage)
	}

	found := false
	for _, issue := range m.Issues {
		if issue.Category == IssueMissingModule && issue.ModuleNumber == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a missing_module issue naming module 2, got %+v", m.Issues)
	}
}

func TestEvaluateEmptyDirectory(t *testing.T) {
	profile, decision, draft := evalFixture()
	draft.Directories = append(draft.Directories, DirectorySpec{Path: "src/empty", ModuleNumber: 1})

	m := Evaluate(profile, decision, draft)
	if m.FileCompleteness >= 1.0 {
		t.Errorf("expected completeness below 1.0, got %f", m.FileCompleteness)
	}
	found := false
	for _, issue := range m.Issues {
		if issue.Category == IssueEmptyDirectory && issue.Path == "src/empty" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an empty_directory issue for src/empty, got %+v", m.Issues)
	}
}

func TestEvaluateOutOfLayerPath(t *testing.T) {
	profile, decision, draft := evalFixture()
	draft.Directories = append(draft.Directories, DirectorySpec{Path: "scripts", ModuleNumber: 1})
	draft.Files = append(draft.Files, FileSpec{Path: "scripts", Filename: "deploy.sh", ModuleNumber: 1})

	m := Evaluate(profile, decision, draft)
	if m.PatternAdherence >= 1.0 {
		t.Errorf("expected adherence below 1.0, got %f", m.PatternAdherence)
	}
	count := 0
	for _, issue := range m.Issues {
		if issue.Category == IssueOutOfLayer {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 out_of_layer issues, got %d", count)
	}
}

func TestEvaluateScoreAlwaysInRange(t *testing.T) {
	profile, decision, _ := evalFixture()
	drafts := []*StructureDraft{
		{},
		{Directories: []DirectorySpec{{Path: "elsewhere"}}},
		{Files: []FileSpec{{Path: "x", Filename: "y"}}},
	}
	for i, d := range drafts {
		m := Evaluate(profile, decision, d)
		if m.OverallScore < 0.0 || m.OverallScore > 1.0 {
			t.Errorf("draft %d: score out of range: %f", i, m.OverallScore)
		}
	}
}

func TestGradeIsMonotonicStepFunction(t *testing.T) {
	cases := []struct {
		score float64
		grade string
	}{
		{1.0, "A"}, {0.90, "A"}, {0.89, "B"}, {0.80, "B"},
		{0.79, "C"}, {0.65, "C"}, {0.64, "D"}, {0.50, "D"},
		{0.49, "F"}, {0.0, "F"},
	}
	prev := "A"
	for _, tc := range cases {
		got := GradeFor(tc.score)
		if got != tc.grade {
			t.Errorf("GradeFor(%f) = %s, want %s", tc.score, got, tc.grade)
		}
		// Scores descend through the table, so grades must not improve.
		if got < prev {
			t.Errorf("grade improved as score dropped: %s after %s", got, prev)
		}
		prev = got
	}
}
