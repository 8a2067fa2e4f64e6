package planner

import (
	"fmt"
	"sort"
	"strings"
)

// Weights for the overall quality score. They sum to 1.
const (
	weightModuleCoverage   = 0.4
	weightFileCompleteness = 0.3
	weightPatternAdherence = 0.3
)

// Evaluate scores a draft against the decision on three axes and collects
// one issue per concrete defect. Pure and deterministic; no LLM call.
//
// Grade bands: A >= 0.90, B >= 0.80, C >= 0.65, D >= 0.50, else F.
func Evaluate(profile *Profile, decision *Decision, draft *StructureDraft) *Metrics {
	m := &Metrics{}

	m.ModuleCoverage = scoreModuleCoverage(decision, draft, m)
	m.FileCompleteness = scoreFileCompleteness(draft, m)
	m.PatternAdherence = scorePatternAdherence(decision, draft, m)

	m.OverallScore = weightModuleCoverage*m.ModuleCoverage +
		weightFileCompleteness*m.FileCompleteness +
		weightPatternAdherence*m.PatternAdherence
	m.Grade = GradeFor(m.OverallScore)
	return m
}

// GradeFor maps an overall score to a letter grade. Monotonic
// non-increasing as the score drops.
func GradeFor(score float64) string {
	switch {
	case score >= 0.90:
		return "A"
	case score >= 0.80:
		return "B"
	case score >= 0.65:
		return "C"
	case score >= 0.50:
		return "D"
	default:
		return "F"
	}
}

// scoreModuleCoverage is the fraction of placed modules referenced by at
// least one directory or file.
func scoreModuleCoverage(decision *Decision, draft *StructureDraft, m *Metrics) float64 {
	if len(decision.ModulePlacements) == 0 {
		return 1.0
	}

	referenced := make(map[int]bool)
	for _, d := range draft.Directories {
		referenced[d.ModuleNumber] = true
	}
	for _, f := range draft.Files {
		referenced[f.ModuleNumber] = true
	}

	numbers := make([]int, 0, len(decision.ModulePlacements))
	for n := range decision.ModulePlacements {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	covered := 0
	for _, n := range numbers {
		if referenced[n] {
			covered++
			continue
		}
		m.Issues = append(m.Issues, Issue{
			Category:     IssueMissingModule,
			ModuleNumber: n,
			Message: fmt.Sprintf("module %d (%s) has no directory or file in the structure",
				n, decision.ModulePlacements[n].Module),
		})
	}
	return float64(covered) / float64(len(numbers))
}

// scoreFileCompleteness is the fraction of directories containing at least
// one file.
func scoreFileCompleteness(draft *StructureDraft, m *Metrics) float64 {
	if len(draft.Directories) == 0 {
		return 0.0
	}

	filesByDir := make(map[string]int)
	for _, f := range draft.Files {
		filesByDir[f.Path]++
	}

	populated := 0
	for _, d := range draft.Directories {
		if filesByDir[d.Path] > 0 {
			populated++
			continue
		}
		m.Issues = append(m.Issues, Issue{
			Category: IssueEmptyDirectory,
			Path:     d.Path,
			Message:  fmt.Sprintf("directory %s contains no files", d.Path),
		})
	}
	return float64(populated) / float64(len(draft.Directories))
}

// scorePatternAdherence is the fraction of directories and files whose path
// falls under one of the decision's layer paths.
func scorePatternAdherence(decision *Decision, draft *StructureDraft, m *Metrics) float64 {
	total := len(draft.Directories) + len(draft.Files)
	if total == 0 {
		return 0.0
	}

	inLayer := func(p string) bool {
		for _, l := range decision.Layers {
			if p == l.Path || strings.HasPrefix(p, l.Path+"/") {
				return true
			}
		}
		return false
	}

	adherent := 0
	for _, d := range draft.Directories {
		if inLayer(d.Path) {
			adherent++
			continue
		}
		m.Issues = append(m.Issues, Issue{
			Category: IssueOutOfLayer,
			Path:     d.Path,
			Message:  fmt.Sprintf("directory %s is outside the declared layers", d.Path),
		})
	}
	for _, f := range draft.Files {
		if inLayer(f.Path) {
			adherent++
			continue
		}
		m.Issues = append(m.Issues, Issue{
			Category: IssueOutOfLayer,
			Path:     f.Path + "/" + f.Filename,
			Message:  fmt.Sprintf("file %s/%s is outside the declared layers", f.Path, f.Filename),
		})
	}
	return float64(adherent) / float64(total)
}
