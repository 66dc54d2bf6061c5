package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/BerylCAtieno/certificate-verifier/internal/models"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, rec *models.VerificationRecord) error
	GetByID(ctx context.Context, id string) (*models.VerificationRecord, error)
	ListByBatch(ctx context.Context, batchID string) ([]models.VerificationRecord, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const columns = `id, batch_id, position, filename, file_hash, file_size, status, name, course_title, course_code,
	category, completion_date, template, rejection_kind, rejection_message, missing_markers, s3_key, created_at`

func (r *repository) Create(ctx context.Context, rec *models.VerificationRecord) error {
	query := `
		INSERT INTO verifications (` + columns + `)
		VALUES (:id, :batch_id, :position, :filename, :file_hash, :file_size, :status, :name, :course_title, :course_code,
			:category, :completion_date, :template, :rejection_kind, :rejection_message, :missing_markers, :s3_key, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

// GetByID returns nil, nil when no record exists.
func (r *repository) GetByID(ctx context.Context, id string) (*models.VerificationRecord, error) {
	var rec models.VerificationRecord

	query := `SELECT ` + columns + ` FROM verifications WHERE id = ?`

	err := r.db.GetContext(ctx, &rec, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func (r *repository) ListByBatch(ctx context.Context, batchID string) ([]models.VerificationRecord, error) {
	var recs []models.VerificationRecord

	query := `SELECT ` + columns + ` FROM verifications WHERE batch_id = ? ORDER BY position`

	if err := r.db.SelectContext(ctx, &recs, query, batchID); err != nil {
		return nil, err
	}

	return recs, nil
}
