package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const PeopleTable = "people"

// Person kinds accepted by the people table's CHECK constraint.
const (
	PersonKindCustomer = "customer"
	PersonKindStaff    = "staff"
	PersonKindSupplier = "supplier"
)

// ValidPersonKind reports whether kind is one of the accepted values.
func ValidPersonKind(kind string) bool {
	switch kind {
	case PersonKindCustomer, PersonKindStaff, PersonKindSupplier:
		return true
	}
	return false
}

// Person represents a row in the people table. Customers, staff and
// suppliers share the shape and differ only by kind.
type Person struct {
	PersonID  uuid.UUID `db:"person_id" json:"personId"`
	OrgID     uuid.UUID `db:"organization_id" json:"organizationId"`
	Kind      string    `db:"kind" json:"kind"`
	FullName  string    `db:"full_name" json:"fullName"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// PersonStore exposes org-scoped persistence helpers for people.
type PersonStore struct {
	pool *pgxpool.Pool
}

// NewPersonStore returns a store instance.
func NewPersonStore(pool *pgxpool.Pool) (*PersonStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &PersonStore{pool: pool}, nil
}

const personColumns = "person_id, organization_id, kind, full_name, email, phone, address, notes, created_at, updated_at"

// CreatePersonParams captures the fields required to insert a person.
type CreatePersonParams struct {
	PersonID uuid.UUID
	Kind     string
	FullName string
	Email    *string
	Phone    *string
	Address  *string
	Notes    *string
}

// Create inserts a person stamped with the caller's organization.
func (s *PersonStore) Create(ctx context.Context, orgID uuid.UUID, params CreatePersonParams) (Person, error) {
	if params.PersonID == uuid.Nil {
		return Person{}, errors.New("person id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (person_id, organization_id, kind, full_name, email, phone, address, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING %s
    `, PeopleTable, personColumns),
		params.PersonID, orgID, params.Kind, strings.TrimSpace(params.FullName),
		params.Email, params.Phone, params.Address, params.Notes,
	)
	return scanPerson(row)
}

// List returns the organization's people, optionally filtered by kind.
func (s *PersonStore) List(ctx context.Context, orgID uuid.UUID, kind *string) ([]Person, error) {
	whereSQL := "organization_id = $1"
	args := []any{orgID}
	if kind != nil {
		args = append(args, *kind)
		whereSQL += " AND kind = $2"
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s ORDER BY full_name ASC", personColumns, PeopleTable, whereSQL), args...)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	people := []Person{}
	for rows.Next() {
		person, scanErr := scanPerson(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan person: %w", scanErr)
		}
		people = append(people, person)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}

	return people, nil
}

// Get returns a single person owned by the organization.
func (s *PersonStore) Get(ctx context.Context, orgID, id uuid.UUID) (Person, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 AND person_id = $2", personColumns, PeopleTable), orgID, id)
	return scanPerson(row)
}

// UpdatePersonParams represents editable fields. Kind is immutable after
// creation.
type UpdatePersonParams struct {
	FullName *string
	Email    *string
	Phone    *string
	Address  *string
	Notes    *string
}

// Update applies the provided fields to a person owned by the organization.
func (s *PersonStore) Update(ctx context.Context, orgID, id uuid.UUID, params UpdatePersonParams) (Person, error) {
	setParts := []string{}
	args := []any{}

	if params.FullName != nil {
		args = append(args, strings.TrimSpace(*params.FullName))
		setParts = append(setParts, fmt.Sprintf("full_name = $%d", len(args)))
	}
	if params.Email != nil {
		args = append(args, params.Email)
		setParts = append(setParts, fmt.Sprintf("email = $%d", len(args)))
	}
	if params.Phone != nil {
		args = append(args, params.Phone)
		setParts = append(setParts, fmt.Sprintf("phone = $%d", len(args)))
	}
	if params.Address != nil {
		args = append(args, params.Address)
		setParts = append(setParts, fmt.Sprintf("address = $%d", len(args)))
	}
	if params.Notes != nil {
		args = append(args, params.Notes)
		setParts = append(setParts, fmt.Sprintf("notes = $%d", len(args)))
	}
	if len(setParts) == 0 {
		return Person{}, errors.New("no fields to update")
	}

	args = append(args, orgID, id)
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET %s, updated_at = NOW()
        WHERE organization_id = $%d AND person_id = $%d
        RETURNING %s
    `, PeopleTable, strings.Join(setParts, ", "), len(args)-1, len(args), personColumns), args...)
	return scanPerson(row)
}

// Delete removes a person owned by the organization.
func (s *PersonStore) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE organization_id = $1 AND person_id = $2", PeopleTable), orgID, id)
	if err != nil {
		return fmt.Errorf("delete person: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPerson(row pgx.Row) (Person, error) {
	var person Person
	if err := row.Scan(&person.PersonID, &person.OrgID, &person.Kind, &person.FullName, &person.Email, &person.Phone, &person.Address, &person.Notes, &person.CreatedAt, &person.UpdatedAt); err != nil {
		return Person{}, mapError(err)
	}
	return person, nil
}
