// Package state persists resumable pipeline progress and the planned
// directory structure in sqlite. One agent-state row exists per
// (project_id, agent_type) at any time; writes are full-row upserts.
package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ChamsBouzaiene/planforge/internal/planner"
)

// Status is the lifecycle state of a pipeline run's persisted record.
type Status string

const (
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusFailed  Status = "failed"
)

// AgentState is the persisted snapshot of a pipeline run, keyed by
// (ProjectID, AgentType).
type AgentState struct {
	ProjectID       string          `json:"project_id"`
	AgentType       string          `json:"agent_type"`
	CurrentPhase    string          `json:"current_phase"`
	StateData       json.RawMessage `json:"state_data"`
	ProgressPercent int             `json:"progress_percent"`
	ProgressMessage string          `json:"progress_message"`
	Status          Status          `json:"status"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Per-phase snapshot payloads stored in StateData. The phase tag on the row
// selects which shape applies, so the opaque blob stays decodable.

// ProfileSnapshot is stored while profiling and deciding.
type ProfileSnapshot struct {
	RunID   string           `json:"run_id"`
	Profile *planner.Profile `json:"profile,omitempty"`
}

// DecisionSnapshot is stored once the architecture decision exists.
type DecisionSnapshot struct {
	RunID    string            `json:"run_id"`
	Profile  *planner.Profile  `json:"profile"`
	Decision *planner.Decision `json:"decision"`
}

// DraftSnapshot is stored once a structure draft exists (generation and
// evaluation phases, and failure snapshots taken after generation).
type DraftSnapshot struct {
	RunID    string                  `json:"run_id"`
	Profile  *planner.Profile        `json:"profile"`
	Decision *planner.Decision       `json:"decision"`
	Draft    *planner.StructureDraft `json:"draft,omitempty"`
	Metrics  *planner.Metrics        `json:"metrics,omitempty"`
}

// ErrorSnapshot is stored on failure, alongside whatever phase data was
// available.
type ErrorSnapshot struct {
	RunID   string `json:"run_id"`
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

// DecodeSnapshot decodes StateData according to the row's phase tag.
func (s *AgentState) DecodeSnapshot() (any, error) {
	decode := func(v any) (any, error) {
		if len(s.StateData) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(s.StateData, v); err != nil {
			return nil, fmt.Errorf("failed to decode %s snapshot: %w", s.CurrentPhase, err)
		}
		return v, nil
	}

	switch s.CurrentPhase {
	case "phase1_profiling":
		return decode(&ProfileSnapshot{})
	case "phase2_decision":
		return decode(&DecisionSnapshot{})
	case "phase3_generating", "phase3b_evaluating", "saving":
		return decode(&DraftSnapshot{})
	case "error":
		return decode(&ErrorSnapshot{})
	default:
		return nil, fmt.Errorf("unknown phase tag: %q", s.CurrentPhase)
	}
}
