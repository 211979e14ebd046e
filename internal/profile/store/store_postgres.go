package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vitrine/internal/profile/models"
	id "vitrine/pkg/domain"
	"vitrine/pkg/platform/tx"
)

// PostgresStore persists profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

const profileColumns = `id, user_id, name, email, phone, photo_url, company_name, segment,
	postal_code, street, number, complement, neighborhood, city, state,
	contacts, services, full_name, tax_id, birth_date, status, submitted_at,
	version, created_at, updated_at`

func (s *PostgresStore) GetByUser(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	return s.getOne(ctx, query, uuid.UUID(userID))
}

func (s *PostgresStore) GetByID(ctx context.Context, profileID id.ProfileID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return s.getOne(ctx, query, uuid.UUID(profileID))
}

func (s *PostgresStore) getOne(ctx context.Context, query string, arg any) (*models.Profile, error) {
	p, err := scanProfile(s.execer(ctx).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Save upserts the whole profile. The update only applies when the stored
// version is p.Version-1; otherwise nothing is written and ErrConflict is
// returned.
func (s *PostgresStore) Save(ctx context.Context, p *models.Profile) error {
	if p == nil {
		return fmt.Errorf("profile is required")
	}
	contacts, err := json.Marshal(p.Contacts)
	if err != nil {
		return fmt.Errorf("marshal contacts: %w", err)
	}
	services := p.Services
	if services == nil {
		services = []string{}
	}
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			photo_url = EXCLUDED.photo_url,
			company_name = EXCLUDED.company_name,
			segment = EXCLUDED.segment,
			postal_code = EXCLUDED.postal_code,
			street = EXCLUDED.street,
			number = EXCLUDED.number,
			complement = EXCLUDED.complement,
			neighborhood = EXCLUDED.neighborhood,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			contacts = EXCLUDED.contacts,
			services = EXCLUDED.services,
			full_name = EXCLUDED.full_name,
			tax_id = EXCLUDED.tax_id,
			birth_date = EXCLUDED.birth_date,
			status = EXCLUDED.status,
			submitted_at = EXCLUDED.submitted_at,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
		WHERE profiles.version = EXCLUDED.version - 1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(p.ID),
		uuid.UUID(p.UserID),
		p.Basic.Name,
		p.Basic.Email,
		p.Basic.Phone,
		p.Photo.PhotoURL,
		p.Company.CompanyName,
		p.Company.Segment,
		p.Address.PostalCode,
		p.Address.Street,
		p.Address.Number,
		p.Address.Complement,
		p.Address.Neighborhood,
		p.Address.City,
		p.Address.State,
		contacts,
		pq.Array(services),
		p.Identity.FullName,
		p.Identity.TaxID,
		p.Identity.BirthDate,
		string(p.Status),
		p.SubmittedAt,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		profileID, userID uuid.UUID
		contacts          []byte
		services          []string
		status            string
		submittedAt       sql.NullTime
		p                 models.Profile
	)
	if err := row.Scan(
		&profileID, &userID,
		&p.Basic.Name, &p.Basic.Email, &p.Basic.Phone,
		&p.Photo.PhotoURL,
		&p.Company.CompanyName, &p.Company.Segment,
		&p.Address.PostalCode, &p.Address.Street, &p.Address.Number, &p.Address.Complement,
		&p.Address.Neighborhood, &p.Address.City, &p.Address.State,
		&contacts, pq.Array(&services),
		&p.Identity.FullName, &p.Identity.TaxID, &p.Identity.BirthDate,
		&status, &submittedAt,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(contacts, &p.Contacts); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	if p.Contacts == nil {
		p.Contacts = []models.Contact{}
	}
	if services == nil {
		services = []string{}
	}
	p.ID = id.ProfileID(profileID)
	p.UserID = id.UserID(userID)
	p.Services = services
	p.Status = models.Status(status)
	if submittedAt.Valid {
		t := submittedAt.Time
		p.SubmittedAt = &t
	}
	return &p, nil
}
