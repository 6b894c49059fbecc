package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Agrid-Dev/thermograph/internal/thermal"
)

// Run identifies one simulation run stored in SQLite.
type Run struct {
	ID        string
	Name      string
	StepS     float64
	CreatedAt time.Time
}

// SQLiteSink stores runs and their samples.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" in tests.
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps in-memory databases alive across calls.
	db.SetMaxOpenConns(1)

	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		step_s REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS samples (
		run_id TEXT NOT NULL,
		node_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		time_s REAL NOT NULL,
		temperature REAL NOT NULL,
		units TEXT NOT NULL,
		PRIMARY KEY (run_id, node_id, idx),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_samples_run ON samples(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// Write stores run and every sample of series in a single transaction.
func (s *SQLiteSink) Write(ctx context.Context, run Run, series []thermal.Series) error {
	if len(series) == 0 {
		return ErrNoSeries
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, name, step_s, created_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Name, run.StepS, run.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (run_id, node_id, idx, time_s, temperature, units) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for _, ser := range series {
		for i, smp := range ser.Samples {
			if _, err := stmt.ExecContext(ctx, run.ID, ser.ID, i, smp.Time, smp.Temperature, ser.Units.String()); err != nil {
				return fmt.Errorf("failed to insert sample %q/%d: %w", ser.ID, i, err)
			}
		}
	}
	return tx.Commit()
}

// Runs lists stored runs, oldest first.
func (s *SQLiteSink) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, step_s, created_at FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Name, &r.StepS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Series reads back the stored series of a run, ordered by node then index.
func (s *SQLiteSink) Series(ctx context.Context, runID string) ([]thermal.Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node_id, time_s, temperature, units
		FROM samples
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []thermal.Series
	for rows.Next() {
		var (
			nodeID, units string
			smp           thermal.Sample
		)
		if err := rows.Scan(&nodeID, &smp.Time, &smp.Temperature, &units); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].ID != nodeID {
			u, err := thermal.ParseUnits(units)
			if err != nil {
				return nil, err
			}
			out = append(out, thermal.Series{ID: nodeID, Units: u})
		}
		last := &out[len(out)-1]
		last.Samples = append(last.Samples, smp)
	}
	return out, rows.Err()
}

// SQLiteExporter adapts a sink to the Exporter interface for one run.
type SQLiteExporter struct {
	Sink *SQLiteSink
	Run  Run
}

func (e SQLiteExporter) Export(ctx context.Context, series []thermal.Series) error {
	return e.Sink.Write(ctx, e.Run, series)
}
