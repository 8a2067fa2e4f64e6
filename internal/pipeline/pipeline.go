// Package pipeline sequences the planning phases, persists resumable agent
// state after each one, and emits a structured progress-event stream
// terminating in exactly one complete or error event.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ChamsBouzaiene/planforge/internal/events"
	"github.com/ChamsBouzaiene/planforge/internal/llm"
	"github.com/ChamsBouzaiene/planforge/internal/planner"
	"github.com/ChamsBouzaiene/planforge/internal/project"
	"github.com/ChamsBouzaiene/planforge/internal/prompts"
	"github.com/ChamsBouzaiene/planforge/internal/state"
)

// AgentTypeDirectoryPlanner is the agent-type key under which this pipeline
// persists its state.
const AgentTypeDirectoryPlanner = "directory_planner"

// Pipeline wires the planning components to an LLM client, a prompt lookup
// and the state store. The caller must ensure only one run per
// (project, agent type) is active at a time.
type Pipeline struct {
	LLM     llm.Client
	Prompts prompts.Lookup
	Store   *state.Store

	AgentType  string          // defaults to AgentTypeDirectoryPlanner
	UserID     string          // forwarded to the LLM provider
	Preference planner.Pattern // optional user-forced pattern

	ScoreThreshold float64 // 0 uses planner.DefaultScoreThreshold
	MaxRounds      int     // 0 uses planner.DefaultMaxRounds
	SkipRefinement bool    // evaluate once, skip the feedback loop
}

// ErrPaused is the internal signal that a cooperative pause was observed at
// a phase boundary.
var errPaused = fmt.Errorf("run paused")

// runState carries everything a run has produced so far; resume rebuilds it
// from a persisted snapshot.
type runState struct {
	runID    string
	proj     *project.Project
	profile  *planner.Profile
	decision *planner.Decision
	draft    *planner.StructureDraft
	metrics  *planner.Metrics
	summary  planner.Summary
}

// Run executes the full pipeline for a project. Events are delivered on the
// returned channel, which is closed after the terminal event.
func (p *Pipeline) Run(ctx context.Context, proj *project.Project) <-chan events.Event {
	ch := make(chan events.Event)
	go func() {
		defer close(ch)
		rs := &runState{runID: uuid.NewString(), proj: proj}
		p.execute(ctx, rs, PhaseProfiling, ch)
	}()
	return ch
}

// Resume continues an interrupted run from its persisted snapshot. The
// project definition must be supplied again; derived artifacts (profile,
// decision, draft) are recovered from the snapshot where present.
func (p *Pipeline) Resume(ctx context.Context, proj *project.Project) <-chan events.Event {
	ch := make(chan events.Event)
	go func() {
		defer close(ch)

		st, err := p.Store.Get(ctx, proj.ID, p.agentType())
		if err != nil {
			p.fail(ctx, proj.ID, "", nil, err, ch)
			return
		}
		if st == nil {
			p.fail(ctx, proj.ID, "", nil, fmt.Errorf("no saved state for project %s", proj.ID), ch)
			return
		}

		rs := &runState{runID: uuid.NewString(), proj: proj}
		startPhase := PhaseProfiling
		if idx := phaseIndex(st.CurrentPhase); idx >= 0 {
			startPhase = st.CurrentPhase
			if err := p.recover(st, rs); err != nil {
				p.fail(ctx, proj.ID, st.CurrentPhase, rs, err, ch)
				return
			}
		}

		// A paused row would stop the run at the first boundary check; flip
		// it back to running before re-entering.
		if err := p.Store.Upsert(ctx, proj.ID, p.agentType(), startPhase, p.snapshot(rs, startPhase),
			phasePercent[startPhase], "resuming", state.StatusRunning); err != nil {
			p.fail(ctx, proj.ID, startPhase, rs, err, ch)
			return
		}

		p.execute(ctx, rs, startPhase, ch)
	}()
	return ch
}

// Pause requests a cooperative stop of a running pipeline. Takes effect at
// the next phase boundary, not mid-LLM-call.
func (p *Pipeline) Pause(ctx context.Context, projectID, reason string) error {
	return p.Store.Pause(ctx, projectID, p.agentType(), reason)
}

// Clear unconditionally deletes any persisted state for a project, so a
// stuck run can be discarded and restarted from the first phase. Returns
// the number of rows removed.
func (p *Pipeline) Clear(ctx context.Context, projectID string) (int, error) {
	return p.Store.Delete(ctx, projectID, p.agentType())
}

// SavedState returns the persisted agent state for a project, or nil.
func (p *Pipeline) SavedState(ctx context.Context, projectID string) (*state.AgentState, error) {
	return p.Store.Get(ctx, projectID, p.agentType())
}

func (p *Pipeline) agentType() string {
	if p.AgentType != "" {
		return p.AgentType
	}
	return AgentTypeDirectoryPlanner
}

// execute runs the phase sequence starting at startPhase. Exactly one
// terminal event is emitted on ch.
func (p *Pipeline) execute(ctx context.Context, rs *runState, startPhase string, ch chan<- events.Event) {
	start := phaseIndex(startPhase)
	if start < 0 {
		start = 0
	}

	for i := start; i < len(phaseOrder); i++ {
		phase := phaseOrder[i]
		if phase == PhaseEvaluating && p.SkipRefinement {
			// Still evaluate once so the complete event carries a score,
			// but without entering the feedback loop.
			rs.metrics = planner.Evaluate(rs.profile, rs.decision, rs.draft)
			p.emitQuality(rs.metrics, ch)
			continue
		}

		if err := p.runPhase(ctx, rs, phase, ch); err != nil {
			if err == errPaused {
				ch <- events.Event{Kind: events.KindComplete, Data: events.Complete{
					Success: false,
					Message: "run paused; resume or clear to continue",
				}}
				return
			}
			p.fail(ctx, rs.proj.ID, phase, rs, err, ch)
			return
		}
	}

	dirs, files := 0, 0
	if rs.draft != nil {
		roots, _ := planner.BuildTree(rs.draft)
		dirs, files = planner.CountTree(roots)
	}
	score, grade := 0.0, ""
	if rs.metrics != nil {
		score, grade = rs.metrics.OverallScore, rs.metrics.Grade
	}
	message := fmt.Sprintf("planned %d directories and %d files", dirs, files)
	if rs.summary.Rounds > 0 {
		message += fmt.Sprintf(" after %d refinement round(s), score %.2f -> %.2f",
			rs.summary.Rounds, rs.summary.InitialScore, rs.summary.FinalScore)
	}
	ch <- events.Event{Kind: events.KindComplete, Data: events.Complete{
		Success:             true,
		DirectoriesCreated:  dirs,
		FilesCreated:        files,
		TotalModules:        rs.profile.TotalModules,
		ArchitecturePattern: string(rs.decision.Pattern),
		QualityScore:        score,
		QualityGrade:        grade,
		Message:             message,
	}}
}

// runPhase performs the boundary checks, the checkpoint write and the
// phase body.
func (p *Pipeline) runPhase(ctx context.Context, rs *runState, phase string, ch chan<- events.Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}

	// Cooperative pause check: only at phase boundaries.
	existing, err := p.Store.Get(ctx, rs.proj.ID, p.agentType())
	if err != nil {
		return err
	}
	if existing != nil && existing.Status == state.StatusPaused {
		return errPaused
	}

	message := phaseMessage(phase)
	if err := p.Store.Upsert(ctx, rs.proj.ID, p.agentType(), phase, p.snapshot(rs, phase),
		phasePercent[phase], message, state.StatusRunning); err != nil {
		return fmt.Errorf("failed to checkpoint %s: %w", phase, err)
	}
	ch <- events.Event{Kind: events.KindProgress, Data: events.Progress{
		Stage:   "pipeline",
		Phase:   phase,
		Message: message,
	}}

	switch phase {
	case PhaseProfiling:
		return p.phaseProfile(rs, ch)
	case PhaseDecision:
		return p.phaseDecide(rs, ch)
	case PhaseGenerating:
		return p.phaseGenerate(ctx, rs, ch)
	case PhaseEvaluating:
		return p.phaseRefine(ctx, rs, ch)
	case PhaseSaving:
		return p.phaseSave(ctx, rs, ch)
	}
	return fmt.Errorf("unknown phase: %s", phase)
}

func (p *Pipeline) phaseProfile(rs *runState, ch chan<- events.Event) error {
	profile, err := planner.BuildProfile(rs.proj)
	if err != nil {
		return err
	}
	rs.profile = profile
	ch <- events.Event{Kind: events.KindProfileBuilt, Data: events.ProfileBuilt{
		ProjectName:          profile.ProjectName,
		TotalModules:         profile.TotalModules,
		TotalSystems:         profile.TotalSystems,
		ComplexityScore:      profile.ComplexityScore,
		RecommendedPattern:   string(profile.RecommendedPattern),
		RecommendationReason: profile.RecommendationReason,
	}}
	return nil
}

func (p *Pipeline) phaseDecide(rs *runState, ch chan<- events.Event) error {
	decision, err := planner.Decide(rs.profile, rs.proj.Modules, p.Preference)
	if err != nil {
		return err
	}
	rs.decision = decision

	layers := make([]string, 0, len(decision.Layers))
	for _, l := range decision.Layers {
		layers = append(layers, l.Name)
	}
	ch <- events.Event{Kind: events.KindDecisionMade, Data: events.DecisionMade{
		Pattern:               string(decision.Pattern),
		PatternRationale:      decision.PatternRationale,
		Layers:                layers,
		ModulePlacementsCount: len(decision.ModulePlacements),
		NamingConvention:      decision.NamingConvention,
	}}
	return nil
}

func (p *Pipeline) phaseGenerate(ctx context.Context, rs *runState, ch chan<- events.Event) error {
	gen := &planner.Generator{LLM: p.LLM, Prompts: p.Prompts, UserID: p.UserID}
	draft, err := gen.Generate(ctx, rs.profile, rs.decision)
	if err != nil {
		return err
	}
	rs.draft = draft
	ch <- events.Event{Kind: events.KindGeneratorComplete, Data: events.GeneratorComplete{
		TotalDirectories: len(draft.Directories),
		TotalFiles:       len(draft.Files),
	}}
	return nil
}

func (p *Pipeline) phaseRefine(ctx context.Context, rs *runState, ch chan<- events.Event) error {
	refiner := &planner.Refiner{
		LLM:            p.LLM,
		Prompts:        p.Prompts,
		UserID:         p.UserID,
		ScoreThreshold: p.ScoreThreshold,
		MaxRounds:      p.MaxRounds,
	}
	best, metrics, summary := refiner.Refine(ctx, rs.profile, rs.decision, rs.draft,
		func(ev events.Event) { ch <- ev })
	rs.draft = best
	rs.metrics = metrics
	rs.summary = summary
	p.emitQuality(metrics, ch)
	return nil
}

func (p *Pipeline) phaseSave(ctx context.Context, rs *runState, ch chan<- events.Event) error {
	roots, _ := planner.BuildTree(rs.draft)
	dirs, files, err := p.Store.SaveStructure(ctx, rs.proj.ID, roots)
	if err != nil {
		return err
	}

	ch <- events.Event{Kind: events.KindStructure, Data: rs.draft}
	ch <- events.Event{Kind: events.KindProgress, Data: events.Progress{
		Stage:   "pipeline",
		Phase:   PhaseDone,
		Message: fmt.Sprintf("saved %d directories and %d files", dirs, files),
	}}

	// Successful completion clears the resumable state.
	if _, err := p.Store.Delete(ctx, rs.proj.ID, p.agentType()); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) emitQuality(m *planner.Metrics, ch chan<- events.Event) {
	ch <- events.Event{Kind: events.KindQualityEvaluated, Data: events.QualityEvaluated{
		OverallScore:     m.OverallScore,
		Grade:            m.Grade,
		ModuleCoverage:   m.ModuleCoverage,
		FileCompleteness: m.FileCompleteness,
		PatternAdherence: m.PatternAdherence,
		IssuesCount:      len(m.Issues),
	}}
}

// snapshot builds the phase-tagged payload persisted with each checkpoint.
func (p *Pipeline) snapshot(rs *runState, phase string) any {
	switch phase {
	case PhaseProfiling:
		return &state.ProfileSnapshot{RunID: rs.runID, Profile: rs.profile}
	case PhaseDecision:
		return &state.DecisionSnapshot{RunID: rs.runID, Profile: rs.profile, Decision: rs.decision}
	default:
		return &state.DraftSnapshot{
			RunID:    rs.runID,
			Profile:  rs.profile,
			Decision: rs.decision,
			Draft:    rs.draft,
			Metrics:  rs.metrics,
		}
	}
}

// recover rebuilds runState from a persisted snapshot.
func (p *Pipeline) recover(st *state.AgentState, rs *runState) error {
	snap, err := st.DecodeSnapshot()
	if err != nil {
		return err
	}
	switch s := snap.(type) {
	case *state.ProfileSnapshot:
		rs.profile = s.Profile
	case *state.DecisionSnapshot:
		rs.profile = s.Profile
		rs.decision = s.Decision
	case *state.DraftSnapshot:
		rs.profile = s.Profile
		rs.decision = s.Decision
		rs.draft = s.Draft
		rs.metrics = s.Metrics
	}
	return nil
}

// fail persists a failure snapshot (best effort: its own failure never
// masks the original error) and emits the terminal error event.
func (p *Pipeline) fail(ctx context.Context, projectID, phase string, rs *runState, cause error, ch chan<- events.Event) {
	runID := ""
	if rs != nil {
		runID = rs.runID
	}
	snap := &state.ErrorSnapshot{RunID: runID, Phase: phase, Message: cause.Error()}

	// Ignore the write error deliberately; the original failure wins.
	_ = p.Store.Upsert(ctx, projectID, p.agentType(), PhaseError, snap,
		phasePercentOf(phase), cause.Error(), state.StatusFailed)

	ch <- events.Event{Kind: events.KindError, Data: events.Error{Message: cause.Error()}}
}

// phasePercentOf returns the checkpoint percent for a phase, or 0.
func phasePercentOf(phase string) int {
	return phasePercent[phase]
}

func phaseMessage(phase string) string {
	switch phase {
	case PhaseProfiling:
		return "profiling project modules and dependencies"
	case PhaseDecision:
		return "choosing an architecture pattern"
	case PhaseGenerating:
		return "generating the directory structure"
	case PhaseEvaluating:
		return "evaluating and refining structure quality"
	case PhaseSaving:
		return "saving the planned structure"
	default:
		return phase
	}
}
