package benchmark

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/standardbeagle/semindex/internal/store"
)

// Store persists RunState rows, one per run id, the same JSON-payload-
// column shape internal/weights uses for learned_weights.
type Store struct {
	db *sql.DB
}

func NewStore(s *store.Store) *Store {
	return &Store{db: s.DB()}
}

type persistedState struct {
	Status RunStatus             `json:"status"`
	Phases map[Phase]PhaseState  `json:"phases"`
}

// Save upserts rs. RunPhase calls it after every progress tick, so the
// current phase's completed count survives an interruption.
func (s *Store) Save(ctx context.Context, rs *RunState) error {
	status, phases := rs.snapshot()
	payload, err := json.Marshal(persistedState{Status: status, Phases: phases})
	if err != nil {
		return fmt.Errorf("marshal run state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO benchmark_runs(run_id, status, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET status = excluded.status,
			payload = excluded.payload, updated_at = excluded.updated_at
	`, rs.RunID, string(status), string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save run %s: %w", rs.RunID, err)
	}
	return nil
}

// Load reloads a prior run's state, or (nil, nil) if runID has never run.
func (s *Store) Load(ctx context.Context, runID string) (*RunState, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM benchmark_runs WHERE run_id = ?`, runID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	var ps persistedState
	if err := json.Unmarshal([]byte(payload), &ps); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", runID, err)
	}
	return &RunState{RunID: runID, Status: ps.Status, Phases: ps.Phases}, nil
}
