package memdir

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/MrEthical07/sessionauth"
)

// Admins is an in-memory sessionauth.AdminDirectory. When built with a
// Users directory, Insert enforces the foreign key to users.
type Admins struct {
	mu     sync.RWMutex
	rows   map[int64]sessionauth.Admin
	nextID int64
	users  *Users
}

func NewAdmins(users *Users) *Admins {
	return &Admins{
		rows:   make(map[int64]sessionauth.Admin),
		nextID: 1,
		users:  users,
	}
}

func (d *Admins) GetByUserID(_ context.Context, userID int64) (*sessionauth.Admin, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.rows[userID]
	if !ok {
		return nil, sessionauth.ErrNoRecord
	}
	return &a, nil
}

// List returns admins ordered by row id.
func (d *Admins) List(context.Context) ([]sessionauth.Admin, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]sessionauth.Admin, 0, len(d.rows))
	for _, a := range d.rows {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Admins) Insert(_ context.Context, userID int64, superAdmin bool) (*sessionauth.Admin, error) {
	if d.users != nil && !d.users.exists(userID) {
		return nil, fmt.Errorf("memdir: admins.user_id %d references no user: %w", userID, sessionauth.ErrNoRecord)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rows[userID]; ok {
		return nil, fmt.Errorf("memdir: admins.user_id %d: %w", userID, sessionauth.ErrDuplicate)
	}

	a := sessionauth.Admin{ID: d.nextID, UserID: userID, SuperAdmin: superAdmin}
	d.nextID++
	d.rows[userID] = a
	return &a, nil
}

func (d *Admins) Delete(_ context.Context, userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.rows, userID)
	return nil
}

func (d *Admins) SetSuperAdmin(_ context.Context, userID int64, value bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.rows[userID]
	if !ok {
		return nil
	}
	a.SuperAdmin = value
	d.rows[userID] = a
	return nil
}
