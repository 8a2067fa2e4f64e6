package planner

import (
	"sort"
	"testing"
)

func treeDraft() *StructureDraft {
	return &StructureDraft{
		RootPath: "src",
		Directories: []DirectorySpec{
			{Path: "src", ModuleNumber: 0},
			{Path: "src/catalog", ModuleNumber: 1},
			{Path: "src/catalog/models", ModuleNumber: 1},
			{Path: "src/orders", ModuleNumber: 2},
		},
		Files: []FileSpec{
			{Path: "src/catalog", Filename: "catalog.go", ModuleNumber: 1},
			{Path: "src/catalog/models", Filename: "item.go", ModuleNumber: 1},
			{Path: "src/orders", Filename: "orders.go", ModuleNumber: 2},
		},
	}
}

func TestBuildTreeRoundTrip(t *testing.T) {
	draft := treeDraft()
	roots, allFiles := BuildTree(draft)

	// Every directory and file from the draft must be reachable exactly once.
	var seenDirs []string
	var seenFiles []string
	WalkTree(roots, func(d *PlannedDirectory) {
		seenDirs = append(seenDirs, d.Path)
		for _, f := range d.Files {
			seenFiles = append(seenFiles, f.Path)
		}
	})
	sort.Strings(seenDirs)
	sort.Strings(seenFiles)

	wantDirs := []string{"src", "src/catalog", "src/catalog/models", "src/orders"}
	if len(seenDirs) != len(wantDirs) {
		t.Fatalf("expected dirs %v, got %v", wantDirs, seenDirs)
	}
	for i := range wantDirs {
		if seenDirs[i] != wantDirs[i] {
			t.Errorf("dir %d: expected %s, got %s", i, wantDirs[i], seenDirs[i])
		}
	}

	wantFiles := []string{"src/catalog/catalog.go", "src/catalog/models/item.go", "src/orders/orders.go"}
	if len(seenFiles) != len(wantFiles) {
		t.Fatalf("expected files %v, got %v", wantFiles, seenFiles)
	}
	for i := range wantFiles {
		if seenFiles[i] != wantFiles[i] {
			t.Errorf("file %d: expected %s, got %s", i, wantFiles[i], seenFiles[i])
		}
	}

	if len(allFiles) != len(wantFiles) {
		t.Errorf("allFiles has %d entries, want %d", len(allFiles), len(wantFiles))
	}
}

func TestBuildTreeNesting(t *testing.T) {
	roots, _ := BuildTree(treeDraft())

	if len(roots) != 1 || roots[0].Path != "src" {
		t.Fatalf("expected single root src, got %+v", roots)
	}

	var catalog *PlannedDirectory
	for _, c := range roots[0].Children {
		if c.Path == "src/catalog" {
			catalog = c
		}
	}
	if catalog == nil {
		t.Fatalf("src/catalog not nested under src: %+v", roots[0].Children)
	}
	if len(catalog.Children) != 1 || catalog.Children[0].Path != "src/catalog/models" {
		t.Errorf("src/catalog/models not nested under src/catalog: %+v", catalog.Children)
	}
}

func TestBuildTreeSynthesizesFileParents(t *testing.T) {
	// The draft only declares files; their parent directory must be created.
	draft := &StructureDraft{
		RootPath: "src",
		Files: []FileSpec{
			{Path: "src/util", Filename: "strings.go", ModuleNumber: 1},
			{Path: "src/util", Filename: "paths.go", ModuleNumber: 1},
		},
	}
	roots, allFiles := BuildTree(draft)

	if len(allFiles) != 2 {
		t.Fatalf("expected 2 files, got %d", len(allFiles))
	}
	found := false
	WalkTree(roots, func(d *PlannedDirectory) {
		if d.Path == "src/util" {
			found = true
			if len(d.Files) != 2 {
				t.Errorf("expected 2 files under src/util, got %d", len(d.Files))
			}
			if d.Name != "util" {
				t.Errorf("expected synthesized name util, got %s", d.Name)
			}
		}
	})
	if !found {
		t.Errorf("src/util not synthesized from file paths")
	}
}

func TestBuildTreeOrphanBecomesRoot(t *testing.T) {
	// src/deep/nested has no declared parent src/deep; rather than inventing
	// intermediate levels it surfaces as a root.
	draft := &StructureDraft{
		RootPath: "src",
		Directories: []DirectorySpec{
			{Path: "src/deep/nested", ModuleNumber: 1},
		},
	}
	roots, _ := BuildTree(draft)
	if len(roots) != 1 || roots[0].Path != "src/deep/nested" {
		t.Errorf("expected orphan directory as root, got %+v", roots)
	}
}

func TestCountTree(t *testing.T) {
	roots, _ := BuildTree(treeDraft())
	dirs, files := CountTree(roots)
	if dirs != 4 {
		t.Errorf("expected 4 directories, got %d", dirs)
	}
	if files != 3 {
		t.Errorf("expected 3 files, got %d", files)
	}
}

func TestBuildTreeEmptyDraft(t *testing.T) {
	roots, allFiles := BuildTree(&StructureDraft{RootPath: "src"})
	if len(roots) != 0 || len(allFiles) != 0 {
		t.Errorf("empty draft should yield nothing, got %d roots %d files", len(roots), len(allFiles))
	}
}
