package pipeline

// Phase tags, in execution order. Progress percentages are fixed
// checkpoints, monotonically increasing across the sequence.
const (
	PhaseProfiling  = "phase1_profiling"
	PhaseDecision   = "phase2_decision"
	PhaseGenerating = "phase3_generating"
	PhaseEvaluating = "phase3b_evaluating"
	PhaseSaving     = "saving"
	PhaseDone       = "done"
	PhaseError      = "error"
)

// phaseOrder drives resume: a run restarted from a snapshot re-enters at
// the phase recorded in the row.
var phaseOrder = []string{
	PhaseProfiling,
	PhaseDecision,
	PhaseGenerating,
	PhaseEvaluating,
	PhaseSaving,
}

var phasePercent = map[string]int{
	PhaseProfiling:  10,
	PhaseDecision:   30,
	PhaseGenerating: 50,
	PhaseEvaluating: 70,
	PhaseSaving:     90,
	PhaseDone:       100,
}

// phaseIndex returns the position of a phase tag in the run order, or -1.
func phaseIndex(tag string) int {
	for i, p := range phaseOrder {
		if p == tag {
			return i
		}
	}
	return -1
}
