package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"vitrine/internal/document/models"
	id "vitrine/pkg/domain"
	"vitrine/pkg/platform/tx"
)

// PostgresStore persists document records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed document store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

const documentColumns = `id, profile_id, category, status, file_name, size_bytes, mime_type,
	storage_url, uploaded_from, uploaded_at, reviewed_at, reviewed_by, rejection_reason`

// Replace upserts on (profile_id, category) so the swap is a single statement.
func (s *PostgresStore) Replace(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("document record is required")
	}
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (profile_id, category) DO UPDATE SET
			id = EXCLUDED.id,
			status = EXCLUDED.status,
			file_name = EXCLUDED.file_name,
			size_bytes = EXCLUDED.size_bytes,
			mime_type = EXCLUDED.mime_type,
			storage_url = EXCLUDED.storage_url,
			uploaded_from = EXCLUDED.uploaded_from,
			uploaded_at = EXCLUDED.uploaded_at,
			reviewed_at = EXCLUDED.reviewed_at,
			reviewed_by = EXCLUDED.reviewed_by,
			rejection_reason = EXCLUDED.rejection_reason
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.ProfileID),
		string(record.Category),
		string(record.Status),
		record.FileName,
		record.SizeBytes,
		record.MimeType,
		record.StorageURL,
		record.UploadedFrom,
		record.UploadedAt,
		record.ReviewedAt,
		record.ReviewedBy,
		record.RejectionReason,
	)
	if err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, profileID id.ProfileID, category models.Category) (*models.Record, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE profile_id = $1 AND category = $2`
	record, err := scanRecord(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(profileID), string(category)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByProfile(ctx context.Context, profileID id.ProfileID) ([]*models.Record, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE profile_id = $1`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(profileID))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	sortByCatalog(records)
	return records, nil
}

// UpdateReview writes review fields only if the slot still holds the same
// document in fromStatus.
func (s *PostgresStore) UpdateReview(ctx context.Context, record *models.Record, fromStatus models.Status) error {
	query := `
		UPDATE documents
		SET status = $1, reviewed_at = $2, reviewed_by = $3, rejection_reason = $4
		WHERE profile_id = $5 AND category = $6 AND id = $7 AND status = $8
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		string(record.Status),
		record.ReviewedAt,
		record.ReviewedBy,
		record.RejectionReason,
		uuid.UUID(record.ProfileID),
		string(record.Category),
		uuid.UUID(record.ID),
		string(fromStatus),
	)
	if err != nil {
		return fmt.Errorf("update document review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document review: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := s.Get(ctx, record.ProfileID, record.Category); err != nil {
		return err
	}
	return ErrConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		docID, profileID uuid.UUID
		category, status string
		reviewedAt       sql.NullTime
		r                models.Record
	)
	if err := row.Scan(
		&docID, &profileID, &category, &status,
		&r.FileName, &r.SizeBytes, &r.MimeType,
		&r.StorageURL, &r.UploadedFrom, &r.UploadedAt,
		&reviewedAt, &r.ReviewedBy, &r.RejectionReason,
	); err != nil {
		return nil, err
	}
	r.ID = id.DocumentID(docID)
	r.ProfileID = id.ProfileID(profileID)
	r.Category = models.Category(category)
	r.Status = models.Status(status)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		r.ReviewedAt = &t
	}
	return &r, nil
}
