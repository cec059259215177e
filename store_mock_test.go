package portalauth

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/charansai0108/portal-auth/otp"
	"github.com/charansai0108/portal-auth/session"
)

// memStore is an in-memory Store used by engine tests. Error fields
// inject failures; call counters let tests assert side effects.
type memStore struct {
	mu sync.Mutex

	users   map[string]UserRecord
	byID    map[string]string
	codes   []otp.Code
	refresh map[string]session.RefreshRecord

	nextID int

	getUserErr       error
	createUserErr    error
	updateHashErr    error
	invalidateErr    error
	consumeErr       error
	recencyErr       error
	createRefreshErr error

	createUserCalls     int
	updateHashCalls     int
	lastLoginCalls      int
	invalidateCalls     int
	lastLoginAt         time.Time
	lastLoginUserID     string
	lastUpdatedHash     string
	lastUpdatedHashUser string
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]UserRecord),
		byID:    make(map[string]string),
		refresh: make(map[string]session.RefreshRecord),
	}
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getUserErr != nil {
		return UserRecord{}, m.getUserErr
	}
	user, ok := m.users[email]
	if !ok {
		return UserRecord{}, ErrProviderUserNotFound
	}
	return user, nil
}

func (m *memStore) GetUserByID(_ context.Context, userID string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email, ok := m.byID[userID]
	if !ok {
		return UserRecord{}, ErrProviderUserNotFound
	}
	return m.users[email], nil
}

func (m *memStore) CreateUser(_ context.Context, input CreateUserInput) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createUserCalls++
	if m.createUserErr != nil {
		return UserRecord{}, m.createUserErr
	}
	if _, exists := m.users[input.Email]; exists {
		return UserRecord{}, ErrProviderDuplicateEmail
	}

	m.nextID++
	user := UserRecord{
		UserID:          "user-" + strconv.Itoa(m.nextID),
		Email:           input.Email,
		PasswordHash:    input.PasswordHash,
		Role:            input.Role,
		Status:          input.Status,
		EmailVerified:   input.EmailVerified,
		EmailVerifiedAt: input.EmailVerifiedAt,
		CreatedAt:       time.Now(),
	}
	m.users[input.Email] = user
	m.byID[user.UserID] = input.Email
	return user, nil
}

func (m *memStore) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateHashCalls++
	if m.updateHashErr != nil {
		return m.updateHashErr
	}
	email, ok := m.byID[userID]
	if !ok {
		return ErrProviderUserNotFound
	}
	user := m.users[email]
	user.PasswordHash = newHash
	m.users[email] = user
	m.lastUpdatedHash = newHash
	m.lastUpdatedHashUser = userID
	return nil
}

func (m *memStore) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLoginCalls++
	m.lastLoginUserID = userID
	m.lastLoginAt = at
	email, ok := m.byID[userID]
	if !ok {
		return ErrProviderUserNotFound
	}
	user := m.users[email]
	user.LastLoginAt = &at
	m.users[email] = user
	return nil
}

func (m *memStore) InvalidateThenCreate(_ context.Context, rec otp.Code, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidateCalls++
	if m.invalidateErr != nil {
		return m.invalidateErr
	}
	for i := range m.codes {
		row := &m.codes[i]
		if row.Email == rec.Email && row.Purpose == rec.Purpose && !row.Used && row.ExpiresAt.After(now) {
			usedAt := now
			row.Used = true
			row.UsedAt = &usedAt
		}
	}
	m.codes = append(m.codes, rec)
	return nil
}

func (m *memStore) ConsumeLatest(_ context.Context, email, code string, purpose otp.Purpose, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumeErr != nil {
		return m.consumeErr
	}
	for i := len(m.codes) - 1; i >= 0; i-- {
		row := &m.codes[i]
		if row.Email != email || row.Purpose != purpose || row.Used || !row.ExpiresAt.After(now) {
			continue
		}
		if row.Code != code {
			return otp.ErrNoMatch
		}
		usedAt := now
		row.Used = true
		row.UsedAt = &usedAt
		return nil
	}
	return otp.ErrNoMatch
}

func (m *memStore) LatestUsedAfter(_ context.Context, email string, purpose otp.Purpose, cutoff time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recencyErr != nil {
		return false, m.recencyErr
	}
	for i := len(m.codes) - 1; i >= 0; i-- {
		row := &m.codes[i]
		if row.Email == email && row.Purpose == purpose && row.Used && row.UsedAt != nil && row.UsedAt.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateRefreshToken(_ context.Context, rec session.RefreshRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createRefreshErr != nil {
		return m.createRefreshErr
	}
	m.refresh[rec.TokenHash] = rec
	return nil
}

func (m *memStore) GetRefreshToken(_ context.Context, tokenHash string) (session.RefreshRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.refresh[tokenHash]
	if !ok {
		return session.RefreshRecord{}, session.ErrNotFound
	}
	return rec, nil
}

func (m *memStore) DeleteRefreshToken(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refresh, tokenHash)
	return nil
}

func (m *memStore) ReplaceRefreshToken(_ context.Context, oldHash string, rec session.RefreshRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refresh, oldHash)
	m.refresh[rec.TokenHash] = rec
	return nil
}

func (m *memStore) PruneExpiredRefreshTokens(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pruned int64
	for hash, rec := range m.refresh {
		if rec.ExpiresAt.Before(before) {
			delete(m.refresh, hash)
			pruned++
		}
	}
	return pruned, nil
}

func (m *memStore) refreshRowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.refresh)
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Token.Issuer = "portal-auth-test"
	// Fast hashing parameters keep the suite quick; minimums still hold.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Security.EnumerationDelay = 2 * time.Millisecond
	return cfg
}

func newTestEngine(t *testing.T, store Store, mutate ...func(*Config)) (*Engine, *ChannelMailer) {
	t.Helper()

	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	mailer := NewChannelMailer(16)
	engine, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithMailer(mailer).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, mailer
}

// receiveMail waits for the async mail dispatch to land.
func receiveMail(t *testing.T, mailer *ChannelMailer) MailMessage {
	t.Helper()

	select {
	case msg := <-mailer.Messages():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mail dispatch")
		return MailMessage{}
	}
}

func seedUser(t *testing.T, store *memStore, engine *Engine, email, pass string, role Role, status AccountStatus) UserRecord {
	t.Helper()

	hash, err := engine.passwordHash.Hash(pass)
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	verifiedAt := time.Now()
	user, err := store.CreateUser(context.Background(), CreateUserInput{
		Email:           email,
		PasswordHash:    hash,
		Role:            role,
		Status:          status,
		EmailVerified:   true,
		EmailVerifiedAt: &verifiedAt,
	})
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	return user
}

var _ Store = (*memStore)(nil)
