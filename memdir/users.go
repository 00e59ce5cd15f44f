package memdir

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrEthical07/sessionauth"
)

// Users is an in-memory sessionauth.UserDirectory.
type Users struct {
	mu      sync.RWMutex
	byID    map[int64]sessionauth.User
	byEmail map[string]int64
	nextID  int64
	now     func() time.Time
}

func NewUsers() *Users {
	return &Users{
		byID:    make(map[int64]sessionauth.User),
		byEmail: make(map[string]int64),
		nextID:  1,
		now:     time.Now,
	}
}

func (d *Users) GetByID(_ context.Context, id int64) (*sessionauth.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.byID[id]
	if !ok {
		return nil, sessionauth.ErrNoRecord
	}
	return cloneUser(u), nil
}

func (d *Users) GetByEmail(_ context.Context, email string) (*sessionauth.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[email]
	if !ok {
		return nil, sessionauth.ErrNoRecord
	}
	return cloneUser(d.byID[id]), nil
}

func (d *Users) EmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[email]
	return ok && id != excludeID, nil
}

func (d *Users) Create(_ context.Context, in sessionauth.NewUser) (*sessionauth.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.byEmail[in.Email]; taken {
		return nil, fmt.Errorf("memdir: users.email %q: %w", in.Email, sessionauth.ErrDuplicate)
	}

	now := d.now().UTC()
	u := sessionauth.User{
		ID:           d.nextID,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		MiddleName:   cloneString(in.MiddleName),
		IsActive:     in.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.nextID++
	d.byID[u.ID] = u
	d.byEmail[u.Email] = u.ID

	return cloneUser(u), nil
}

func (d *Users) Update(_ context.Context, id int64, c sessionauth.UserChanges) (*sessionauth.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.byID[id]
	if !ok {
		return nil, sessionauth.ErrNoRecord
	}

	if c.Email != nil && *c.Email != u.Email {
		if owner, taken := d.byEmail[*c.Email]; taken && owner != id {
			return nil, fmt.Errorf("memdir: users.email %q: %w", *c.Email, sessionauth.ErrDuplicate)
		}
		delete(d.byEmail, u.Email)
		u.Email = *c.Email
		d.byEmail[u.Email] = id
	}
	if c.FirstName != nil {
		u.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		u.LastName = *c.LastName
	}
	if c.MiddleName != nil {
		u.MiddleName = cloneString(c.MiddleName)
	}
	u.UpdatedAt = d.now().UTC()
	d.byID[id] = u

	return cloneUser(u), nil
}

func (d *Users) SetActive(_ context.Context, id int64, active bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.byID[id]
	if !ok {
		return sessionauth.ErrNoRecord
	}
	u.IsActive = active
	u.UpdatedAt = d.now().UTC()
	d.byID[id] = u
	return nil
}

func (d *Users) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.byID[id]
	if !ok {
		return sessionauth.ErrNoRecord
	}
	u.PasswordHash = hash
	u.UpdatedAt = d.now().UTC()
	d.byID[id] = u
	return nil
}

func (d *Users) exists(id int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byID[id]
	return ok
}

func cloneUser(u sessionauth.User) *sessionauth.User {
	u.MiddleName = cloneString(u.MiddleName)
	return &u
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
