package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MrEthical07/sessionauth"
)

// Users is a sessionauth.UserDirectory backed by the users table.
type Users struct {
	db DBTX
}

// NewUsers creates a user directory on db.
func NewUsers(db DBTX) *Users {
	return &Users{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, middle_name,
	is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*sessionauth.User, error) {
	u := &sessionauth.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.MiddleName,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (d *Users) GetByID(ctx context.Context, id int64) (*sessionauth.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	u, err := scanUser(d.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sessionauth.ErrNoRecord
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// GetByEmail matches email exactly; callers normalize it first.
func (d *Users) GetByEmail(ctx context.Context, email string) (*sessionauth.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	u, err := scanUser(d.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sessionauth.ErrNoRecord
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (d *Users) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := d.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`,
		email, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (d *Users) Create(ctx context.Context, in sessionauth.NewUser) (*sessionauth.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (email, password_hash, first_name, last_name, middle_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, userColumns)

	u, err := scanUser(d.db.QueryRow(ctx, query,
		in.Email, in.PasswordHash, in.FirstName, in.LastName, in.MiddleName, in.IsActive,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user: %w", sessionauth.ErrDuplicate)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Update writes the non-nil fields of c and bumps updated_at.
func (d *Users) Update(ctx context.Context, id int64, c sessionauth.UserChanges) (*sessionauth.User, error) {
	query := fmt.Sprintf(`
		UPDATE users SET
			email       = COALESCE($2, email),
			first_name  = COALESCE($3, first_name),
			last_name   = COALESCE($4, last_name),
			middle_name = COALESCE($5, middle_name),
			updated_at  = now()
		WHERE id = $1
		RETURNING %s`, userColumns)

	u, err := scanUser(d.db.QueryRow(ctx, query, id, c.Email, c.FirstName, c.LastName, c.MiddleName))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, sessionauth.ErrNoRecord
		case isUniqueViolation(err):
			return nil, fmt.Errorf("update user %d: %w", id, sessionauth.ErrDuplicate)
		}
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return u, nil
}

func (d *Users) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := d.db.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return fmt.Errorf("set user %d active: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return sessionauth.ErrNoRecord
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash, typically after a login
// verified a weaker one.
func (d *Users) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := d.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id, hash,
	)
	if err != nil {
		return fmt.Errorf("update password hash for user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return sessionauth.ErrNoRecord
	}
	return nil
}
