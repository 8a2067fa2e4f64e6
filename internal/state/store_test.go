package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ChamsBouzaiene/planforge/internal/planner"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertIsIdempotentPerKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := &DecisionSnapshot{RunID: "r1", Profile: &planner.Profile{ProjectName: "p"}}
	for i := 0; i < 3; i++ {
		if err := s.Upsert(ctx, "proj", "directory_planner", "phase2_decision", snap, 30, "deciding", StatusRunning); err != nil {
			t.Fatalf("Upsert %d failed: %v", i, err)
		}
	}

	st, err := s.Get(ctx, "proj", "directory_planner")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st == nil {
		t.Fatalf("expected a row after upserts")
	}
	if st.CurrentPhase != "phase2_decision" || st.ProgressPercent != 30 || st.Status != StatusRunning {
		t.Errorf("unexpected row: %+v", st)
	}

	// Deleting must report exactly one row, proving repeats did not stack.
	n, err := s.Delete(ctx, "proj", "directory_planner")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly 1 row deleted, got %d", n)
	}
}

func TestUpsertReplacesRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, "proj", "directory_planner", "phase1_profiling", nil, 10, "profiling", StatusRunning); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := s.Upsert(ctx, "proj", "directory_planner", "phase3_generating", nil, 50, "generating", StatusRunning); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	st, err := s.Get(ctx, "proj", "directory_planner")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st.CurrentPhase != "phase3_generating" || st.ProgressPercent != 50 {
		t.Errorf("row not replaced: %+v", st)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Get(context.Background(), "nope", "directory_planner")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st != nil {
		t.Errorf("expected nil for a missing key, got %+v", st)
	}
}

func TestDeleteMissingReturnsZero(t *testing.T) {
	s := newTestStore(t)

	n, err := s.Delete(context.Background(), "nope", "directory_planner")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 rows deleted, got %d", n)
	}
}

func TestPause(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Pausing without a running row is an error.
	if err := s.Pause(ctx, "proj", "directory_planner", "stop"); err == nil {
		t.Errorf("expected error pausing a missing state")
	}

	if err := s.Upsert(ctx, "proj", "directory_planner", "phase2_decision", nil, 30, "deciding", StatusRunning); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := s.Pause(ctx, "proj", "directory_planner", "user requested pause"); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}

	st, err := s.Get(ctx, "proj", "directory_planner")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st.Status != StatusPaused {
		t.Errorf("expected paused status, got %s", st.Status)
	}
	if st.ProgressMessage != "user requested pause" {
		t.Errorf("expected pause reason recorded, got %q", st.ProgressMessage)
	}

	// Already-paused rows can't be paused again.
	if err := s.Pause(ctx, "proj", "directory_planner", "again"); err == nil {
		t.Errorf("expected error pausing an already-paused state")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := &DecisionSnapshot{
		RunID:   "run-42",
		Profile: &planner.Profile{ProjectName: "shop", TotalModules: 3},
		Decision: &planner.Decision{
			Pattern:  planner.PatternLayered,
			RootPath: "src",
		},
	}
	if err := s.Upsert(ctx, "proj", "directory_planner", "phase2_decision", snap, 30, "deciding", StatusRunning); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	st, err := s.Get(ctx, "proj", "directory_planner")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	decoded, err := st.DecodeSnapshot()
	if err != nil {
		t.Fatalf("DecodeSnapshot failed: %v", err)
	}
	got, ok := decoded.(*DecisionSnapshot)
	if !ok {
		t.Fatalf("expected *DecisionSnapshot, got %T", decoded)
	}
	if got.RunID != "run-42" || got.Profile.ProjectName != "shop" || got.Decision.Pattern != planner.PatternLayered {
		t.Errorf("snapshot lost data: %+v", got)
	}
}

func TestDecodeSnapshotRejectsUnknownPhase(t *testing.T) {
	st := &AgentState{CurrentPhase: "phase9_imaginary"}
	if _, err := st.DecodeSnapshot(); err == nil {
		t.Errorf("expected error for unknown phase tag")
	}
}

func TestSaveStructureCountsAndReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	roots := []*planner.PlannedDirectory{
		{
			Name: "src", Path: "src", NodeType: "directory",
			Children: []*planner.PlannedDirectory{
				{
					Name: "catalog", Path: "src/catalog", NodeType: "directory", ModuleNumber: 1,
					Files: []planner.PlannedFile{
						{Name: "catalog.go", Path: "src/catalog/catalog.go", ModuleNumber: 1},
						{Name: "item.go", Path: "src/catalog/item.go", ModuleNumber: 1},
					},
				},
			},
		},
	}

	dirs, files, err := s.SaveStructure(ctx, "proj", roots)
	if err != nil {
		t.Fatalf("SaveStructure failed: %v", err)
	}
	if dirs != 2 || files != 2 {
		t.Errorf("expected 2 dirs 2 files, got %d/%d", dirs, files)
	}

	// Saving again replaces rather than appends.
	smaller := []*planner.PlannedDirectory{{Name: "src", Path: "src", NodeType: "directory"}}
	dirs, files, err = s.SaveStructure(ctx, "proj", smaller)
	if err != nil {
		t.Fatalf("SaveStructure failed: %v", err)
	}
	if dirs != 1 || files != 0 {
		t.Errorf("expected 1 dir 0 files after replace, got %d/%d", dirs, files)
	}
}

func TestClearStructure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	roots := []*planner.PlannedDirectory{{Name: "src", Path: "src", NodeType: "directory"}}
	if _, _, err := s.SaveStructure(ctx, "proj", roots); err != nil {
		t.Fatalf("SaveStructure failed: %v", err)
	}
	if err := s.ClearStructure(ctx, "proj"); err != nil {
		t.Fatalf("ClearStructure failed: %v", err)
	}

	// A fresh save after clearing starts from zero rows; the counts prove
	// nothing lingered.
	dirs, files, err := s.SaveStructure(ctx, "proj", roots)
	if err != nil {
		t.Fatalf("SaveStructure failed: %v", err)
	}
	if dirs != 1 || files != 0 {
		t.Errorf("expected 1 dir 0 files, got %d/%d", dirs, files)
	}
}
