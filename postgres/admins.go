package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MrEthical07/sessionauth"
)

// Pool is what Admins needs from a connection pool: queries plus
// transactions.
type Pool interface {
	DBTX
	TxBeginner
}

// Admins is a sessionauth.AdminDirectory backed by the admins table.
type Admins struct {
	db Pool
}

// NewAdmins creates an admin directory on db.
func NewAdmins(db Pool) *Admins {
	return &Admins{db: db}
}

const adminColumns = `id, user_id, super_admin`

func scanAdmin(row pgx.Row) (*sessionauth.Admin, error) {
	a := &sessionauth.Admin{}
	err := row.Scan(&a.ID, &a.UserID, &a.SuperAdmin)
	return a, err
}

func (d *Admins) GetByUserID(ctx context.Context, userID int64) (*sessionauth.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins WHERE user_id = $1`, adminColumns)
	a, err := scanAdmin(d.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sessionauth.ErrNoRecord
		}
		return nil, fmt.Errorf("get admin for user %d: %w", userID, err)
	}
	return a, nil
}

func (d *Admins) List(ctx context.Context) ([]sessionauth.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins ORDER BY id`, adminColumns)
	rows, err := d.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	admins := make([]sessionauth.Admin, 0)
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// Insert adds the admin row in its own transaction. A unique violation rolls
// the transaction back and is reported as sessionauth.ErrDuplicate.
func (d *Admins) Insert(ctx context.Context, userID int64, superAdmin bool) (*sessionauth.Admin, error) {
	var admin *sessionauth.Admin
	err := RunInTx(ctx, d.db, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
			INSERT INTO admins (user_id, super_admin)
			VALUES ($1, $2)
			RETURNING %s`, adminColumns)

		a, err := scanAdmin(tx.QueryRow(ctx, query, userID, superAdmin))
		if err != nil {
			return err
		}
		admin = a
		return nil
	})
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, fmt.Errorf("insert admin for user %d: %w", userID, sessionauth.ErrDuplicate)
		case isForeignKeyViolation(err):
			return nil, fmt.Errorf("insert admin for user %d: %w", userID, sessionauth.ErrNoRecord)
		}
		return nil, fmt.Errorf("insert admin for user %d: %w", userID, err)
	}
	return admin, nil
}

func (d *Admins) Delete(ctx context.Context, userID int64) error {
	if _, err := d.db.Exec(ctx, `DELETE FROM admins WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete admin for user %d: %w", userID, err)
	}
	return nil
}

// SetSuperAdmin updates the flag. A missing row is not an error; callers
// re-read to find out.
func (d *Admins) SetSuperAdmin(ctx context.Context, userID int64, value bool) error {
	if _, err := d.db.Exec(ctx, `UPDATE admins SET super_admin = $2 WHERE user_id = $1`, userID, value); err != nil {
		return fmt.Errorf("set super admin for user %d: %w", userID, err)
	}
	return nil
}
