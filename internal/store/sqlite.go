package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	yaml "github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ticksched/internal/sched"
	"ticksched/internal/sim"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when an operation names a run that is not
// stored.
var ErrRunNotFound = errors.New("run not found")

// Run is an archived simulation result.
type Run struct {
	ID            string
	Policy        string
	Config        string // engine config as YAML
	Workload      string
	CreatedAt     time.Time
	Ticks         int64
	IdleTicks     int64
	Completed     int
	Rejected      int
	Dispatches    int
	Promotions    int
	AvgTurnaround float64
	AvgWaiting    float64
	AvgResponse   float64

	Tasks []sim.TaskStats // only filled by GetRun
}

// NewRun converts a simulation report into a Run with a fresh ID.
func NewRun(r *sim.Report, createdAt time.Time) (*Run, error) {
	cfg, err := yaml.Marshal(r.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return &Run{
		ID:            "run_" + uuid.New().String(),
		Policy:        r.Policy.String(),
		Config:        string(cfg),
		Workload:      r.Workload,
		CreatedAt:     createdAt,
		Ticks:         r.Ticks,
		IdleTicks:     r.IdleTicks,
		Completed:     r.Completed(),
		Rejected:      r.Rejected,
		Dispatches:    r.Dispatches,
		Promotions:    r.Promotions,
		AvgTurnaround: r.AvgTurnaround(),
		AvgWaiting:    r.AvgWaiting(),
		AvgResponse:   r.AvgResponse(),
		Tasks:         r.Tasks(),
	}, nil
}

// SQLiteStore keeps simulation runs in SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// One connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug().Str("op", "migrate").Msg("sql")
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id             TEXT PRIMARY KEY,
		policy         TEXT NOT NULL,
		config         TEXT NOT NULL,
		workload       TEXT NOT NULL,
		created_at     TEXT NOT NULL,
		ticks          INTEGER NOT NULL,
		idle_ticks     INTEGER NOT NULL,
		completed      INTEGER NOT NULL,
		rejected       INTEGER NOT NULL,
		dispatches     INTEGER NOT NULL,
		promotions     INTEGER NOT NULL,
		avg_turnaround REAL NOT NULL,
		avg_waiting    REAL NOT NULL,
		avg_response   REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	`CREATE TABLE IF NOT EXISTS task_stats (
		run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		task_id    INTEGER NOT NULL,
		name       TEXT NOT NULL,
		tier       INTEGER NOT NULL,
		final_tier INTEGER NOT NULL,
		arrival    INTEGER NOT NULL,
		first_run  INTEGER NOT NULL,
		completion INTEGER NOT NULL,
		burst      INTEGER NOT NULL,
		dispatches INTEGER NOT NULL,
		promotions INTEGER NOT NULL,
		PRIMARY KEY (run_id, task_id)
	)`,
}

// SaveRun stores a run and its task stats in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, r *Run) error {
	s.logger.Debug().Str("op", "insert").Str("table", "runs").Str("id", r.ID).Msg("sql")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, policy, config, workload, created_at, ticks, idle_ticks, completed, rejected,
		                   dispatches, promotions, avg_turnaround, avg_waiting, avg_response)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Policy, r.Config, r.Workload, r.CreatedAt.UTC().Format(time.RFC3339Nano),
		r.Ticks, r.IdleTicks, r.Completed, r.Rejected, r.Dispatches, r.Promotions,
		r.AvgTurnaround, r.AvgWaiting, r.AvgResponse,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO task_stats (run_id, task_id, name, tier, final_tier, arrival, first_run, completion, burst, dispatches, promotions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ts := range r.Tasks {
		if _, err := stmt.ExecContext(ctx, r.ID, int64(ts.ID), ts.Name, ts.Tier, ts.FinalTier,
			ts.Arrival, ts.FirstRun, ts.Completion, ts.Burst, ts.Dispatches, ts.Promotions); err != nil {
			return fmt.Errorf("insert task %d: %w", ts.ID, err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, policy, config, workload, created_at, ticks, idle_ticks, completed, rejected,
	dispatches, promotions, avg_turnaround, avg_waiting, avg_response`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var createdAt string
	if err := row.Scan(&r.ID, &r.Policy, &r.Config, &r.Workload, &createdAt, &r.Ticks, &r.IdleTicks,
		&r.Completed, &r.Rejected, &r.Dispatches, &r.Promotions,
		&r.AvgTurnaround, &r.AvgWaiting, &r.AvgResponse); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("run %s: created_at %q: %w", r.ID, createdAt, err)
	}
	r.CreatedAt = t
	return &r, nil
}

// ListRuns returns the most recent runs first, without task stats.
// limit <= 0 returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	s.logger.Debug().Str("op", "list").Str("table", "runs").Int("limit", limit).Msg("sql")

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns one run with its task stats, or nil when it does not exist.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.logger.Debug().Str("op", "select").Str("table", "runs").Str("id", id).Msg("sql")

	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, name, tier, final_tier, arrival, first_run, completion, burst, dispatches, promotions
		 FROM task_stats WHERE run_id = ? ORDER BY task_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ts sim.TaskStats
		var taskID int64
		if err := rows.Scan(&taskID, &ts.Name, &ts.Tier, &ts.FinalTier, &ts.Arrival, &ts.FirstRun,
			&ts.Completion, &ts.Burst, &ts.Dispatches, &ts.Promotions); err != nil {
			return nil, err
		}
		ts.ID = sched.TaskID(taskID)
		r.Tasks = append(r.Tasks, ts)
	}
	return r, rows.Err()
}

// DeleteRun removes a run and its task stats. Unknown ids yield
// ErrRunNotFound.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	s.logger.Debug().Str("op", "delete").Str("table", "runs").Str("id", id).Msg("sql")
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
