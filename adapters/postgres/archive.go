package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"erhsim/domain/core"
	domstats "erhsim/domain/stats"
	"erhsim/internal/errors"
	"erhsim/ports"
)

// ArchiveImpl implements RunArchive for PostgreSQL
type ArchiveImpl struct {
	db *sqlx.DB
}

// NewArchive creates a new PostgreSQL run archive
func NewArchive(db *sqlx.DB) ports.RunArchive {
	return &ArchiveImpl{db: db}
}

// EnsureSchema creates the archive table if it does not exist
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_summaries (
			run_id TEXT PRIMARY KEY,
			judge TEXT NOT NULL,
			seed BIGINT NOT NULL,
			num_actions INTEGER NOT NULL,
			num_primes INTEGER NOT NULL,
			x_max INTEGER NOT NULL,
			baseline_model TEXT NOT NULL,
			exponent DOUBLE PRECISION NOT NULL,
			r_squared DOUBLE PRECISION NOT NULL,
			hypothesis_satisfied BOOLEAN NOT NULL,
			fingerprint TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return errors.ArchiveError("failed to create run_summaries table", err)
	}
	return nil
}

// runRow is the db-tagged shape of a run summary
type runRow struct {
	RunID         string    `db:"run_id"`
	Judge         string    `db:"judge"`
	Seed          int64     `db:"seed"`
	NumActions    int       `db:"num_actions"`
	NumPrimes     int       `db:"num_primes"`
	XMax          int       `db:"x_max"`
	BaselineModel string    `db:"baseline_model"`
	Exponent      float64   `db:"exponent"`
	RSquared      float64   `db:"r_squared"`
	Satisfied     bool      `db:"hypothesis_satisfied"`
	Fingerprint   string    `db:"fingerprint"`
	CreatedAt     time.Time `db:"created_at"`
}

func toRow(s domstats.RunSummary) runRow {
	return runRow{
		RunID:         s.RunID.String(),
		Judge:         s.Judge,
		Seed:          s.Seed,
		NumActions:    s.NumActions,
		NumPrimes:     s.NumPrimes,
		XMax:          s.XMax,
		BaselineModel: s.BaselineModel,
		Exponent:      s.Exponent,
		RSquared:      s.RSquared,
		Satisfied:     s.Satisfied,
		Fingerprint:   s.Fingerprint.String(),
		CreatedAt:     s.CreatedAt.Time(),
	}
}

func (r runRow) toSummary() domstats.RunSummary {
	return domstats.RunSummary{
		RunID:         core.RunID(r.RunID),
		Judge:         r.Judge,
		Seed:          r.Seed,
		NumActions:    r.NumActions,
		NumPrimes:     r.NumPrimes,
		XMax:          r.XMax,
		BaselineModel: r.BaselineModel,
		Exponent:      r.Exponent,
		RSquared:      r.RSquared,
		Satisfied:     r.Satisfied,
		Fingerprint:   core.RunFingerprint(r.Fingerprint),
		CreatedAt:     core.NewTimestamp(r.CreatedAt),
	}
}

// SaveRun upserts one run summary keyed by run id
func (a *ArchiveImpl) SaveRun(ctx context.Context, summary domstats.RunSummary) error {
	_, err := a.db.NamedExecContext(ctx, `
		INSERT INTO run_summaries (
			run_id, judge, seed, num_actions, num_primes, x_max,
			baseline_model, exponent, r_squared, hypothesis_satisfied,
			fingerprint, created_at
		) VALUES (
			:run_id, :judge, :seed, :num_actions, :num_primes, :x_max,
			:baseline_model, :exponent, :r_squared, :hypothesis_satisfied,
			:fingerprint, :created_at
		)
		ON CONFLICT (run_id) DO UPDATE SET
			exponent = EXCLUDED.exponent,
			r_squared = EXCLUDED.r_squared,
			hypothesis_satisfied = EXCLUDED.hypothesis_satisfied,
			fingerprint = EXCLUDED.fingerprint
	`, toRow(summary))
	if err != nil {
		return errors.ArchiveError("failed to save run summary", err)
	}
	return nil
}

// GetRun fetches one run summary by id
func (a *ArchiveImpl) GetRun(ctx context.Context, id core.RunID) (*domstats.RunSummary, error) {
	var row runRow
	err := a.db.GetContext(ctx, &row, `
		SELECT run_id, judge, seed, num_actions, num_primes, x_max,
		       baseline_model, exponent, r_squared, hypothesis_satisfied,
		       fingerprint, created_at
		FROM run_summaries
		WHERE run_id = $1
	`, id.String())
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", id.String(), core.ErrRunNotFound)
	}
	if err != nil {
		return nil, errors.ArchiveError("failed to load run summary", err)
	}
	summary := row.toSummary()
	return &summary, nil
}

// ListRuns returns the most recent run summaries, newest first
func (a *ArchiveImpl) ListRuns(ctx context.Context, limit int) ([]domstats.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []runRow
	err := a.db.SelectContext(ctx, &rows, `
		SELECT run_id, judge, seed, num_actions, num_primes, x_max,
		       baseline_model, exponent, r_squared, hypothesis_satisfied,
		       fingerprint, created_at
		FROM run_summaries
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.ArchiveError("failed to list run summaries", err)
	}

	summaries := make([]domstats.RunSummary, len(rows))
	for i, r := range rows {
		summaries[i] = r.toSummary()
	}
	return summaries, nil
}

// Connect opens a PostgreSQL connection pool and verifies it
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, errors.ArchiveError("failed to connect to archive database", err)
	}
	return db, nil
}
