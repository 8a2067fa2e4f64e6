package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/planforge/internal/events"
	"github.com/ChamsBouzaiene/planforge/internal/llm"
	"github.com/ChamsBouzaiene/planforge/internal/prompts"
)

// Refinement loop defaults.
const (
	DefaultScoreThreshold = 0.8
	DefaultMaxRounds      = 3
)

// Refiner runs the closed feedback loop: evaluate, ask the LLM to patch the
// evaluator's issues, re-evaluate, until the score clears the threshold or
// the round budget runs out.
type Refiner struct {
	LLM     llm.Client
	Prompts prompts.Lookup
	UserID  string

	ScoreThreshold float64 // 0 means DefaultScoreThreshold
	MaxRounds      int     // 0 means DefaultMaxRounds

	Temperature float32
	MaxTokens   int
}

// Summary describes one refinement run.
type Summary struct {
	Rounds       int     `json:"rounds"`
	InitialScore float64 `json:"initial_score"`
	FinalScore   float64 `json:"final_score"`
	Improvement  float64 `json:"improvement"`
}

// Refine improves a draft until the threshold or round budget is hit. It
// returns the best-scoring draft seen across all rounds, not necessarily
// the last one: an LLM patch can regress, and a regressed round must not
// win. A failed round (call or parse) stops the loop early and returns the
// best draft so far; a partially refined structure is still usable.
//
// emit may be nil; when set it receives round telemetry events.
func (r *Refiner) Refine(ctx context.Context, profile *Profile, decision *Decision, draft *StructureDraft, emit func(events.Event)) (*StructureDraft, *Metrics, Summary) {
	threshold := r.ScoreThreshold
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}
	maxRounds := r.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	current := draft
	metrics := Evaluate(profile, decision, current)

	best := current
	bestMetrics := metrics
	summary := Summary{InitialScore: metrics.OverallScore}

	for summary.Rounds < maxRounds && metrics.OverallScore < threshold {
		if ctx.Err() != nil {
			break
		}

		patched, err := r.patch(ctx, decision, current, metrics.Issues)
		if err != nil {
			// Keep the best draft obtained so far instead of propagating.
			break
		}

		prev := metrics
		summary.Rounds++
		current = patched
		metrics = Evaluate(profile, decision, current)

		if emit != nil {
			emit(events.Event{Kind: events.KindRefineRound, Data: events.RefineRound{
				Round:       summary.Rounds,
				Score:       metrics.OverallScore,
				Grade:       metrics.Grade,
				IssuesFixed: len(prev.Issues) - len(metrics.Issues),
			}})
		}

		if metrics.OverallScore > bestMetrics.OverallScore {
			best = current
			bestMetrics = metrics
		}
	}

	summary.FinalScore = bestMetrics.OverallScore
	summary.Improvement = summary.FinalScore - summary.InitialScore
	return best, bestMetrics, summary
}

// RefineStream wraps Refine as a lazy event sequence terminating in a
// structure event carrying the best draft.
func (r *Refiner) RefineStream(ctx context.Context, profile *Profile, decision *Decision, draft *StructureDraft) <-chan events.Event {
	ch := make(chan events.Event)
	go func() {
		defer close(ch)

		emit := func(ev events.Event) { ch <- ev }
		best, metrics, summary := r.Refine(ctx, profile, decision, draft, emit)

		ch <- events.Event{Kind: events.KindQualityEvaluated, Data: events.QualityEvaluated{
			OverallScore:     metrics.OverallScore,
			Grade:            metrics.Grade,
			ModuleCoverage:   metrics.ModuleCoverage,
			FileCompleteness: metrics.FileCompleteness,
			PatternAdherence: metrics.PatternAdherence,
			IssuesCount:      len(metrics.Issues),
		}}
		ch <- events.Event{Kind: events.KindProgress, Data: events.Progress{
			Stage: "refiner",
			Phase: "phase3b_evaluating",
			Message: fmt.Sprintf("refinement finished: %d rounds, %.2f -> %.2f",
				summary.Rounds, summary.InitialScore, summary.FinalScore),
		}}
		ch <- events.Event{Kind: events.KindStructure, Data: best}
	}()
	return ch
}

// patch asks the LLM for a full replacement draft fixing the given issues.
// The whole structure is regenerated each round rather than diffed, so the
// evaluated draft and the kept draft can never diverge.
func (r *Refiner) patch(ctx context.Context, decision *Decision, current *StructureDraft, issues []Issue) (*StructureDraft, error) {
	system, ok := "", false
	if r.Prompts != nil {
		system, ok = r.Prompts.GetPrompt(prompts.PromptStructureRefinement)
	}
	if !ok {
		system = "You review directory structures. Fix exactly the listed issues and " +
			"respond with a complete replacement JSON structure, nothing else."
	}
	system = prompts.NewBuilderFrom(system).
		SetVariable("root_path", decision.RootPath).
		SetVariable("naming_convention", decision.NamingConvention).
		Build()

	var b strings.Builder
	b.WriteString("Current structure:\n")
	b.WriteString(renderDraft(current))
	b.WriteString("\nIssues to fix:\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "- [%s] %s\n", issue.Category, issue.Message)
	}

	reply, err := r.LLM.Complete(ctx, llm.Request{
		System:      system,
		Messages:    []llm.ChatMessage{{Role: llm.RoleUser, Content: b.String()}},
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
		UserID:      r.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("refinement call failed: %w", err)
	}

	patched, err := ParseStructure(reply)
	if err != nil {
		return nil, err
	}
	normalizeDraft(patched, decision)
	return patched, nil
}

// renderDraft serializes a draft for inclusion in the refinement prompt.
func renderDraft(draft *StructureDraft) string {
	var b strings.Builder
	for _, d := range draft.Directories {
		fmt.Fprintf(&b, "dir  %s (module %d): %s\n", d.Path, d.ModuleNumber, d.Description)
	}
	for _, f := range draft.Files {
		fmt.Fprintf(&b, "file %s/%s (module %d, %s): %s\n",
			f.Path, f.Filename, f.ModuleNumber, f.FileType, f.Description)
	}
	return b.String()
}
