package planner

import (
	"path"
	"sort"
	"strings"
)

// BuildTree converts a flat draft into a nested directory tree suitable for
// persistence. Round-trip complete: every DirectorySpec and FileSpec in the
// input appears exactly once in the output. Directories referenced only as
// a file's parent are synthesized.
func BuildTree(draft *StructureDraft) (roots []*PlannedDirectory, allFiles []PlannedFile) {
	nodes := make(map[string]*PlannedDirectory)

	ensure := func(p string) *PlannedDirectory {
		if n, ok := nodes[p]; ok {
			return n
		}
		n := &PlannedDirectory{
			Name:     path.Base(p),
			Path:     p,
			NodeType: "directory",
		}
		nodes[p] = n
		return n
	}

	for _, d := range draft.Directories {
		n := ensure(d.Path)
		n.Description = d.Description
		n.ModuleNumber = d.ModuleNumber
	}

	// Group files under their exact directory path.
	for _, f := range draft.Files {
		n := ensure(f.Path)
		pf := PlannedFile{
			Name:         f.Filename,
			Path:         path.Join(f.Path, f.Filename),
			FileType:     f.FileType,
			Language:     f.Language,
			Description:  f.Description,
			Purpose:      f.Purpose,
			Priority:     f.Priority,
			ModuleNumber: f.ModuleNumber,
		}
		n.Files = append(n.Files, pf)
		allFiles = append(allFiles, pf)
	}

	// Nest each directory under its parent, sorted by path so parents are
	// created before children and the result is stable.
	paths := make([]string, 0, len(nodes))
	for p := range nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		n := nodes[p]
		parent := path.Dir(p)
		if parent == "." || parent == "/" || !strings.Contains(p, "/") {
			roots = append(roots, n)
			continue
		}
		pn, ok := nodes[parent]
		if !ok {
			// Parent never declared and holds no files: treat this node as
			// a root rather than inventing intermediate levels.
			roots = append(roots, n)
			continue
		}
		pn.Children = append(pn.Children, n)
	}

	return roots, allFiles
}

// WalkTree visits every directory in the tree depth-first.
func WalkTree(roots []*PlannedDirectory, visit func(*PlannedDirectory)) {
	var walk func(*PlannedDirectory)
	walk = func(d *PlannedDirectory) {
		visit(d)
		for _, c := range d.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
}

// CountTree returns the number of directories and files reachable from the
// given roots.
func CountTree(roots []*PlannedDirectory) (dirs, files int) {
	WalkTree(roots, func(d *PlannedDirectory) {
		dirs++
		files += len(d.Files)
	})
	return dirs, files
}
