package main

import (
	"log"
	"strings"

	"github.com/ChamsBouzaiene/planforge/internal/events"
	"github.com/ChamsBouzaiene/planforge/internal/planner"
)

// printEvents consumes a pipeline event stream and logs it for the
// terminal. Returns true when the run completed successfully.
func printEvents(stream <-chan events.Event) bool {
	success := false
	for ev := range stream {
		switch ev.Kind {
		case events.KindProgress:
			d := ev.Data.(events.Progress)
			log.Printf("[%s] %s", d.Phase, d.Message)
		case events.KindProfileBuilt:
			d := ev.Data.(events.ProfileBuilt)
			log.Printf("Profile: %d modules, %d systems, complexity %.1f -> %s (%s)",
				d.TotalModules, d.TotalSystems, d.ComplexityScore,
				d.RecommendedPattern, d.RecommendationReason)
		case events.KindDecisionMade:
			d := ev.Data.(events.DecisionMade)
			log.Printf("Decision: %s pattern, layers [%s], %d modules placed",
				d.Pattern, strings.Join(d.Layers, ", "), d.ModulePlacementsCount)
		case events.KindGeneratorComplete:
			d := ev.Data.(events.GeneratorComplete)
			log.Printf("Generated %d directories, %d files", d.TotalDirectories, d.TotalFiles)
		case events.KindRefineRound:
			d := ev.Data.(events.RefineRound)
			log.Printf("Refinement round %d: score %.2f (%s)", d.Round, d.Score, d.Grade)
		case events.KindQualityEvaluated:
			d := ev.Data.(events.QualityEvaluated)
			log.Printf("Quality: %.2f (%s) coverage=%.2f completeness=%.2f adherence=%.2f issues=%d",
				d.OverallScore, d.Grade, d.ModuleCoverage, d.FileCompleteness,
				d.PatternAdherence, d.IssuesCount)
		case events.KindStructure:
			if draft, ok := ev.Data.(*planner.StructureDraft); ok {
				printDraft(draft)
			}
		case events.KindComplete:
			d := ev.Data.(events.Complete)
			if d.Success {
				log.Printf("Done: %s (pattern %s, grade %s)", d.Message, d.ArchitecturePattern, d.QualityGrade)
			} else {
				log.Printf("Stopped: %s", d.Message)
			}
			success = d.Success
		case events.KindError:
			d := ev.Data.(events.Error)
			log.Printf("Error: %s", d.Message)
		}
	}
	return success
}

func printDraft(draft *planner.StructureDraft) {
	roots, _ := planner.BuildTree(draft)
	var print func(d *planner.PlannedDirectory, indent string)
	print = func(d *planner.PlannedDirectory, indent string) {
		log.Printf("%s%s/", indent, d.Name)
		for _, f := range d.Files {
			log.Printf("%s  %s", indent, f.Name)
		}
		for _, c := range d.Children {
			print(c, indent+"  ")
		}
	}
	for _, r := range roots {
		print(r, "  ")
	}
}
