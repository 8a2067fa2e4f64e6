package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ChamsBouzaiene/planforge/internal/planner"
)

// Store provides sqlite-backed persistence for agent state and planned
// structures.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database and initializes the schema.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	// WAL mode allows readers alongside the single writer; sqlite does not
	// handle multiple writers well, so the pool is capped at one conn.
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// initSchema creates the tables if they don't exist.
func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	-- One row per (project, agent type); full-row replace on every checkpoint
	CREATE TABLE IF NOT EXISTS agent_states (
		project_id       TEXT NOT NULL,
		agent_type       TEXT NOT NULL,
		current_phase    TEXT NOT NULL,
		state_data       TEXT NOT NULL DEFAULT '{}',
		progress_percent INTEGER NOT NULL DEFAULT 0,
		progress_message TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL DEFAULT 'running',
		updated_at       INTEGER NOT NULL,
		PRIMARY KEY (project_id, agent_type)
	);

	-- Persisted planning output
	CREATE TABLE IF NOT EXISTS planned_directories (
		dir_id        INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id    TEXT NOT NULL,
		module_number INTEGER NOT NULL,
		name          TEXT NOT NULL,
		path          TEXT NOT NULL,
		parent_path   TEXT,
		node_type     TEXT NOT NULL,
		description   TEXT,
		created_at    INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_planned_dirs_project ON planned_directories(project_id);

	CREATE TABLE IF NOT EXISTS planned_files (
		file_id        INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id     TEXT NOT NULL,
		module_number  INTEGER NOT NULL,
		directory_path TEXT NOT NULL,
		filename       TEXT NOT NULL,
		path           TEXT NOT NULL,
		file_type      TEXT,
		language       TEXT,
		description    TEXT,
		purpose        TEXT,
		priority       TEXT,
		created_at     INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_planned_files_project ON planned_files(project_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Get returns the agent state for a key, or nil if absent.
func (s *Store) Get(ctx context.Context, projectID, agentType string) (*AgentState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT current_phase, state_data, progress_percent, progress_message, status, updated_at
		FROM agent_states WHERE project_id = ? AND agent_type = ?`,
		projectID, agentType)

	st := &AgentState{ProjectID: projectID, AgentType: agentType}
	var stateData string
	var updatedAt int64
	err := row.Scan(&st.CurrentPhase, &stateData, &st.ProgressPercent,
		&st.ProgressMessage, &st.Status, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load agent state: %w", err)
	}
	st.StateData = json.RawMessage(stateData)
	st.UpdatedAt = time.Unix(updatedAt, 0)
	return st, nil
}

// Upsert writes a full agent-state row, replacing any existing row for the
// same key. Idempotent per key: writing twice leaves exactly one row.
func (s *Store) Upsert(ctx context.Context, projectID, agentType, phase string, data any, percent int, message string, status Status) error {
	payload := "{}"
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal state data: %w", err)
		}
		payload = string(raw)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_states
			(project_id, agent_type, current_phase, state_data, progress_percent, progress_message, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, agent_type) DO UPDATE SET
			current_phase = excluded.current_phase,
			state_data = excluded.state_data,
			progress_percent = excluded.progress_percent,
			progress_message = excluded.progress_message,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		projectID, agentType, phase, payload, percent, message, string(status), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert agent state: %w", err)
	}
	return nil
}

// Delete removes the agent state for a key and reports how many rows were
// deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, projectID, agentType string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM agent_states WHERE project_id = ? AND agent_type = ?`,
		projectID, agentType)
	if err != nil {
		return 0, fmt.Errorf("failed to delete agent state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return int(n), nil
}

// Pause flips a running state to paused with a caller-supplied reason. The
// pipeline notices at its next phase boundary; a mid-flight LLM call is not
// interrupted.
func (s *Store) Pause(ctx context.Context, projectID, agentType, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE agent_states
		SET status = ?, progress_message = ?, updated_at = ?
		WHERE project_id = ? AND agent_type = ? AND status = ?`,
		string(StatusPaused), reason, time.Now().Unix(),
		projectID, agentType, string(StatusRunning))
	if err != nil {
		return fmt.Errorf("failed to pause agent state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count paused rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no running agent state for project %s", projectID)
	}
	return nil
}

// SaveStructure persists a planned tree for a project, replacing any
// previous structure. Returns (directories created, files created).
func (s *Store) SaveStructure(ctx context.Context, projectID string, roots []*planner.PlannedDirectory) (int, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"planned_directories", "planned_files"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE project_id = ?`, table), projectID); err != nil {
			return 0, 0, fmt.Errorf("failed to clear previous structure: %w", err)
		}
	}

	now := time.Now().Unix()
	dirs, files := 0, 0

	var insert func(d *planner.PlannedDirectory, parentPath string) error
	insert = func(d *planner.PlannedDirectory, parentPath string) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO planned_directories
				(project_id, module_number, name, path, parent_path, node_type, description, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, d.ModuleNumber, d.Name, d.Path, parentPath, d.NodeType, d.Description, now); err != nil {
			return fmt.Errorf("failed to insert directory %s: %w", d.Path, err)
		}
		dirs++

		for _, f := range d.Files {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO planned_files
					(project_id, module_number, directory_path, filename, path, file_type, language, description, purpose, priority, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				projectID, f.ModuleNumber, d.Path, f.Name, f.Path, f.FileType,
				f.Language, f.Description, f.Purpose, f.Priority, now); err != nil {
				return fmt.Errorf("failed to insert file %s: %w", f.Path, err)
			}
			files++
		}

		for _, c := range d.Children {
			if err := insert(c, d.Path); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range roots {
		if err := insert(r, ""); err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit structure: %w", err)
	}
	return dirs, files, nil
}

// ClearStructure deletes a project's persisted structure.
func (s *Store) ClearStructure(ctx context.Context, projectID string) error {
	for _, table := range []string{"planned_directories", "planned_files"} {
		if _, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE project_id = ?`, table), projectID); err != nil {
			return fmt.Errorf("failed to clear structure: %w", err)
		}
	}
	return nil
}
