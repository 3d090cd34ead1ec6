package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pmajay/image-verifier/internal/entity"
	"github.com/pmajay/image-verifier/internal/repository"
)

// Schema is applied on startup by EnsureSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS verifications (
	id            UUID PRIMARY KEY,
	content_hash  TEXT NOT NULL,
	filename      TEXT NOT NULL,
	is_authentic  BOOLEAN NOT NULL,
	confidence    SMALLINT NOT NULL,
	verdict       TEXT NOT NULL,
	true_pct      SMALLINT NOT NULL,
	fake_pct      SMALLINT NOT NULL,
	manipulated_pct SMALLINT NOT NULL,
	warnings      JSONB NOT NULL DEFAULT '[]',
	degraded      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS verifications_created_at_idx ON verifications (created_at DESC);
CREATE INDEX IF NOT EXISTS verifications_content_hash_idx ON verifications (content_hash);
`

const selectColumns = `id, content_hash, filename, is_authentic, confidence, verdict,
	true_pct, fake_pct, manipulated_pct, warnings, degraded, created_at`

// VerificationRepoImpl provides a concrete implementation for the VerificationRepository interface using PostgreSQL.
type VerificationRepoImpl struct {
	db *pgxpool.Pool
}

// NewVerificationRepo creates a new instance of VerificationRepoImpl.
func NewVerificationRepo(db *pgxpool.Pool) *VerificationRepoImpl {
	return &VerificationRepoImpl{db: db}
}

// EnsureSchema creates the verifications table if it does not exist.
func (r *VerificationRepoImpl) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, Schema)
	return err
}

func (r *VerificationRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// SaveAll writes every record within a single transaction.
func (r *VerificationRepoImpl) SaveAll(ctx context.Context, records []*entity.VerificationRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range records {
		warnings := rec.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		warningsJSON, err := json.Marshal(warnings)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO verifications (id, content_hash, filename, is_authentic, confidence, verdict,
				true_pct, fake_pct, manipulated_pct, warnings, degraded, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO NOTHING`,
			rec.ID,
			rec.ContentHash,
			rec.Filename,
			rec.IsAuthentic,
			rec.Confidence,
			string(rec.Verdict),
			rec.Percentages.True,
			rec.Percentages.Fake,
			rec.Percentages.Manipulated,
			warningsJSON,
			rec.Degraded,
			rec.CreatedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert verifications: %w", err)
	}

	return tx.Commit(ctx)
}

// FindByID retrieves a single record.
func (r *VerificationRepoImpl) FindByID(ctx context.Context, id string) (*entity.VerificationRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM verifications WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecent returns the newest records first.
func (r *VerificationRepoImpl) ListRecent(ctx context.Context, limit int) ([]*entity.VerificationRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+selectColumns+` FROM verifications ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*entity.VerificationRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*entity.VerificationRecord, error) {
	var (
		rec          entity.VerificationRecord
		verdict      string
		warningsJSON []byte
	)
	err := row.Scan(
		&rec.ID,
		&rec.ContentHash,
		&rec.Filename,
		&rec.IsAuthentic,
		&rec.Confidence,
		&verdict,
		&rec.Percentages.True,
		&rec.Percentages.Fake,
		&rec.Percentages.Manipulated,
		&warningsJSON,
		&rec.Degraded,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Verdict = entity.Verdict(verdict)

	if err := json.Unmarshal(warningsJSON, &rec.Warnings); err != nil {
		return nil, err
	}
	return &rec, nil
}
