package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/income-bracket-predictor/internal/core/domain"
)

type PredictionRepository struct {
	db *sql.DB
}

func NewPredictionRepository(db *sql.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	return prepareDB(ctx, db)
}

// prepareDB sizes the pool and pings; db is closed when the ping fails.
func prepareDB(ctx context.Context, db *sql.DB) (*sql.DB, error) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *PredictionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2025070101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS predictions (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL,
	model_version TEXT NOT NULL,
	cached BOOLEAN NOT NULL DEFAULT FALSE,
	inputs JSONB NOT NULL,
	record JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_predictions_model_version ON predictions(model_version);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Save is idempotent on id so redelivered events are harmless.
func (r *PredictionRepository) Save(ctx context.Context, p *domain.Prediction) error {
	inputsJSON, err := json.Marshal(p.Inputs)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	recordJSON, err := json.Marshal(p.Record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO predictions (id, label, model_version, cached, inputs, record, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING
`,
		p.ID, string(p.Label), p.ModelVersion, p.Cached, inputsJSON, recordJSON, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

func (r *PredictionRepository) GetByID(ctx context.Context, id string) (*domain.Prediction, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, label, model_version, cached, inputs, record, created_at
FROM predictions
WHERE id = $1
`, id)

	var p domain.Prediction
	var label string
	var inputsRaw, recordRaw []byte

	err := row.Scan(&p.ID, &label, &p.ModelVersion, &p.Cached, &inputsRaw, &recordRaw, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrPredictionNotFound, "get prediction", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan prediction: %w", err)
	}

	if err := json.Unmarshal(inputsRaw, &p.Inputs); err != nil {
		return nil, fmt.Errorf("unmarshal inputs: %w", err)
	}
	if err := json.Unmarshal(recordRaw, &p.Record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	p.Label = domain.Label(label)
	return &p, nil
}
