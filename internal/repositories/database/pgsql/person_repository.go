package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fintrackr/recon_engine/internal/apperrors"
	"github.com/fintrackr/recon_engine/internal/core/domain"
	portsrepo "github.com/fintrackr/recon_engine/internal/core/ports/repositories"
	"github.com/fintrackr/recon_engine/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const personColumns = `person_id, user_id, name, email, phone, credit_balance, youtube_slots,
	icloud_slots, is_group, group_id, is_active, version, created_at, created_by,
	last_updated_at, last_updated_by`

// PgxPersonRepository implements the person ports over a pgx pool.
type PgxPersonRepository struct {
	pool *pgxpool.Pool
}

// NewPersonRepository creates a new repository for person data.
func NewPersonRepository(pool *pgxpool.Pool) *PgxPersonRepository {
	return &PgxPersonRepository{pool: pool}
}

// Ensure PgxPersonRepository implements the person ports.
var _ portsrepo.PersonRepository = (*PgxPersonRepository)(nil)

func toDomainPerson(m models.Person) domain.Person {
	return domain.Person{
		PersonID:      m.PersonID,
		UserID:        m.UserID,
		Name:          m.Name,
		Email:         m.Email,
		Phone:         m.Phone,
		CreditBalance: m.CreditBalance,
		YouTubeSlots:  m.YouTubeSlots,
		ICloudSlots:   m.ICloudSlots,
		IsGroup:       m.IsGroup,
		GroupID:       m.GroupID,
		IsActive:      m.IsActive,
		Version:       m.Version,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

func scanPerson(row pgx.Row) (*domain.Person, error) {
	var m models.Person
	var email, phone, groupID sql.NullString
	err := row.Scan(
		&m.PersonID, &m.UserID, &m.Name, &email, &phone, &m.CreditBalance, &m.YouTubeSlots,
		&m.ICloudSlots, &m.IsGroup, &groupID, &m.IsActive, &m.Version, &m.CreatedAt, &m.CreatedBy,
		&m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan person: %w", err)
	}
	m.Email = email.String
	m.Phone = phone.String
	m.GroupID = groupID.String
	p := toDomainPerson(m)
	return &p, nil
}

// FindPersonByID retrieves a specific person by their unique identifier.
func (r *PgxPersonRepository) FindPersonByID(ctx context.Context, personID string) (*domain.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE person_id = $1;`
	return scanPerson(r.pool.QueryRow(ctx, query, personID))
}

// ListGroupMembers retrieves the people whose group_id points at the group.
func (r *PgxPersonRepository) ListGroupMembers(ctx context.Context, groupID string) ([]domain.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE group_id = $1 ORDER BY person_id;`
	return r.queryPersons(ctx, query, groupID)
}

// ListPersonsByUser retrieves every person owned by the tenant user.
func (r *PgxPersonRepository) ListPersonsByUser(ctx context.Context, userID string) ([]domain.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE user_id = $1 ORDER BY person_id;`
	return r.queryPersons(ctx, query, userID)
}

func (r *PgxPersonRepository) queryPersons(ctx context.Context, query string, args ...any) ([]domain.Person, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer rows.Close()

	var people []domain.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

// UpdateCreditBalanceCAS writes the materialized net owed amount using
// optimistic concurrency.
func (r *PgxPersonRepository) UpdateCreditBalanceCAS(ctx context.Context, personID string, expectedVersion int64, creditBalance decimal.Decimal, now time.Time) error {
	query := `
		UPDATE people
		SET credit_balance = $1, version = version + 1, last_updated_at = $2
		WHERE person_id = $3 AND version = $4;
	`
	tag, err := r.pool.Exec(ctx, query, creditBalance, now, personID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to write back credit balance for person %s: %w", personID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: person %s version %d", apperrors.ErrStaleWrite, personID, expectedVersion)
	}
	return nil
}
