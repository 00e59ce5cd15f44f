package sessionauth

import (
	"context"
	"errors"
	"time"
)

// User is a persisted identity record.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	MiddleName   *string   `json:"middle_name"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Admin is a role-membership record, one per user.
type Admin struct {
	ID         int64 `json:"id"`
	UserID     int64 `json:"user_id"`
	SuperAdmin bool  `json:"super_admin"`
}

// RegisterInput carries the fields accepted by Engine.Register. Password
// confirmation is checked by the caller.
type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	MiddleName *string
}

// NewUser is the record handed to UserDirectory.Create.
type NewUser struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	MiddleName   *string
	IsActive     bool
}

// ProfileUpdate lists optional profile changes. Nil and blank values are
// ignored.
type ProfileUpdate struct {
	Email      *string
	FirstName  *string
	LastName   *string
	MiddleName *string
}

// UserChanges is the normalized, non-empty subset of a ProfileUpdate that a
// UserDirectory must persist.
type UserChanges struct {
	Email      *string
	FirstName  *string
	LastName   *string
	MiddleName *string
}

// Empty reports whether c carries no change.
func (c UserChanges) Empty() bool {
	return c.Email == nil && c.FirstName == nil && c.LastName == nil && c.MiddleName == nil
}

// ErrNoRecord is returned by directory lookups when nothing matches.
var ErrNoRecord = errors.New("record not found")

// UserDirectory is the persistence surface for users.
//
// Lookups return ErrNoRecord when nothing matches. Writes that violate the
// email uniqueness constraint return an error wrapping ErrDuplicate.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByEmail matches the stored email exactly.
	GetByEmail(ctx context.Context, email string) (*User, error)
	// EmailExists reports whether another user (id != excludeID) owns email.
	// excludeID 0 checks every user.
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, u NewUser) (*User, error)
	Update(ctx context.Context, id int64, changes UserChanges) (*User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	// UpdatePasswordHash overwrites the stored hash. It returns ErrNoRecord
	// when the user is gone.
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

// AdminDirectory is the persistence surface for admin role rows.
//
// Insert returns an error wrapping ErrDuplicate when a row for the user
// already exists; implementations must leave no partial write behind in that
// case. Insert for a user that does not exist returns an error wrapping
// ErrNoRecord. Delete of an absent row is not an error.
type AdminDirectory interface {
	GetByUserID(ctx context.Context, userID int64) (*Admin, error)
	List(ctx context.Context) ([]Admin, error)
	Insert(ctx context.Context, userID int64, superAdmin bool) (*Admin, error)
	Delete(ctx context.Context, userID int64) error
	SetSuperAdmin(ctx context.Context, userID int64, value bool) error
}

// CredentialHasher hashes and verifies passwords. Verify never reports an
// error: anything that goes wrong is a failed verification.
type CredentialHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// RehashChecker is implemented by hashers that can tell a stale hash from a
// current one. When the configured hasher implements it, Login replaces
// stale hashes with the output of Hash.
type RehashChecker interface {
	NeedsRehash(hash string) bool
}

// SessionStore is the key-value contract sessions are kept in. An empty map
// from ReadAllFields means the session does not exist.
type SessionStore interface {
	WriteFields(ctx context.Context, sid string, fields map[string]string, ttl time.Duration) error
	ReadAllFields(ctx context.Context, sid string) (map[string]string, error)
	Delete(ctx context.Context, sid string) error
	RenewTTL(ctx context.Context, sid string, ttl time.Duration) error
}
