package sessionauth

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct-password-123"

type mockUserDirectory struct {
	mu     sync.Mutex
	users  map[int64]User
	nextID int64

	getErr          error
	createErr       error
	updateErr       error
	passwordHashErr error

	getByEmailCalls   int
	updateCalls       int
	setActiveCalls    int
	passwordHashCalls int
}

func newMockUserDirectory() *mockUserDirectory {
	return &mockUserDirectory{
		users:  map[int64]User{},
		nextID: 1,
	}
}

func (m *mockUserDirectory) put(u User) *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.nextID
	}
	if u.ID >= m.nextID {
		m.nextID = u.ID + 1
	}
	m.users[u.ID] = u
	return &u
}

func (m *mockUserDirectory) GetByID(_ context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNoRecord
	}
	return &u, nil
}

func (m *mockUserDirectory) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByEmailCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNoRecord
}

func (m *mockUserDirectory) EmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.Email == email && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserDirectory) Create(_ context.Context, in NewUser) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, u := range m.users {
		if u.Email == in.Email {
			return nil, fmt.Errorf("users_email_key: %w", ErrDuplicate)
		}
	}
	now := time.Now().UTC()
	u := User{
		ID:           m.nextID,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		MiddleName:   in.MiddleName,
		IsActive:     in.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.nextID++
	m.users[u.ID] = u
	return &u, nil
}

func (m *mockUserDirectory) Update(_ context.Context, id int64, c UserChanges) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNoRecord
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.FirstName != nil {
		u.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		u.LastName = *c.LastName
	}
	if c.MiddleName != nil {
		u.MiddleName = c.MiddleName
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return &u, nil
}

func (m *mockUserDirectory) SetActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setActiveCalls++
	u, ok := m.users[id]
	if !ok {
		return ErrNoRecord
	}
	u.IsActive = active
	m.users[id] = u
	return nil
}

func (m *mockUserDirectory) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwordHashCalls++
	if m.passwordHashErr != nil {
		return m.passwordHashErr
	}
	u, ok := m.users[id]
	if !ok {
		return ErrNoRecord
	}
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

type mockAdminDirectory struct {
	mu     sync.Mutex
	admins map[int64]Admin
	nextID int64

	// beforeInsert runs without the lock held, letting a test slip a
	// competing row in between the pre-check and the insert.
	beforeInsert func()
	// dropAfterDuplicate removes the row right after reporting a duplicate,
	// so the follow-up read finds nothing.
	dropAfterDuplicate bool
	// dropAfterUpdate removes the row after SetSuperAdmin succeeds.
	dropAfterUpdate bool
	listErr         error
	insertErr       error
}

func newMockAdminDirectory() *mockAdminDirectory {
	return &mockAdminDirectory{
		admins: map[int64]Admin{},
		nextID: 1,
	}
}

func (m *mockAdminDirectory) put(userID int64, super bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins[userID] = Admin{ID: m.nextID, UserID: userID, SuperAdmin: super}
	m.nextID++
}

func (m *mockAdminDirectory) GetByUserID(_ context.Context, userID int64) (*Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[userID]
	if !ok {
		return nil, ErrNoRecord
	}
	return &a, nil
}

func (m *mockAdminDirectory) List(context.Context) ([]Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Admin, 0, len(m.admins))
	for _, a := range m.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockAdminDirectory) Insert(_ context.Context, userID int64, super bool) (*Admin, error) {
	if m.beforeInsert != nil {
		m.beforeInsert()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	if _, ok := m.admins[userID]; ok {
		if m.dropAfterDuplicate {
			delete(m.admins, userID)
		}
		return nil, fmt.Errorf("admins_user_id_key: %w", ErrDuplicate)
	}
	a := Admin{ID: m.nextID, UserID: userID, SuperAdmin: super}
	m.nextID++
	m.admins[userID] = a
	return &a, nil
}

func (m *mockAdminDirectory) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.admins, userID)
	return nil
}

func (m *mockAdminDirectory) SetSuperAdmin(_ context.Context, userID int64, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[userID]
	if !ok {
		return nil
	}
	a.SuperAdmin = value
	m.admins[userID] = a
	if m.dropAfterUpdate {
		delete(m.admins, userID)
	}
	return nil
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Password.BcryptCost = bcrypt.MinCost
	return cfg
}

type testEngine struct {
	*Engine
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	users  *mockUserDirectory
	admins *mockAdminDirectory
}

func newTestEngine(t testing.TB, cfg Config, sink AuditSink) *testEngine {
	t.Helper()

	mr, rdb := newTestRedis(t)
	users := newMockUserDirectory()
	admins := newMockAdminDirectory()

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserDirectory(users).
		WithAdminDirectory(admins)
	if sink != nil {
		b = b.WithAuditSink(sink)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{
		Engine: engine,
		mr:     mr,
		rdb:    rdb,
		users:  users,
		admins: admins,
	}
}

// seedUser stores an active user whose password is testPassword.
func (te *testEngine) seedUser(t testing.TB, email string, active bool) *User {
	t.Helper()

	hash, err := te.hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return te.users.put(User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		IsActive:     active,
	})
}

func (te *testEngine) login(t testing.TB, email string) string {
	t.Helper()

	sid, err := te.Login(context.Background(), email, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return sid
}
