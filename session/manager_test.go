package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charansai0108/portal-auth/internal"
	"github.com/charansai0108/portal-auth/token"
)

type mockRefreshStore struct {
	records map[string]RefreshRecord

	createErr  error
	getErr     error
	deleteErr  error
	replaceErr error

	createCalls  int
	deleteCalls  int
	replaceCalls int
}

func newMockRefreshStore() *mockRefreshStore {
	return &mockRefreshStore{records: make(map[string]RefreshRecord)}
}

func (m *mockRefreshStore) CreateRefreshToken(_ context.Context, rec RefreshRecord) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	m.records[rec.TokenHash] = rec
	return nil
}

func (m *mockRefreshStore) GetRefreshToken(_ context.Context, tokenHash string) (RefreshRecord, error) {
	if m.getErr != nil {
		return RefreshRecord{}, m.getErr
	}
	rec, ok := m.records[tokenHash]
	if !ok {
		return RefreshRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *mockRefreshStore) DeleteRefreshToken(_ context.Context, tokenHash string) error {
	m.deleteCalls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.records, tokenHash)
	return nil
}

func (m *mockRefreshStore) ReplaceRefreshToken(_ context.Context, oldHash string, rec RefreshRecord) error {
	m.replaceCalls++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	delete(m.records, oldHash)
	m.records[rec.TokenHash] = rec
	return nil
}

func (m *mockRefreshStore) PruneExpiredRefreshTokens(_ context.Context, before time.Time) (int64, error) {
	var pruned int64
	for hash, rec := range m.records {
		if rec.ExpiresAt.Before(before) {
			delete(m.records, hash)
			pruned++
		}
	}
	return pruned, nil
}

func newTestManager(t *testing.T, store RefreshStore, rotate bool, clock func() time.Time) *Manager {
	t.Helper()

	tokens, err := token.NewManager(token.Config{
		Secret:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:    "portal-auth-test",
		AccessTTL: 15 * time.Minute,
		Clock:     clock,
	})
	if err != nil {
		t.Fatalf("token.NewManager error: %v", err)
	}

	manager, err := NewManager(store, tokens, Config{
		RefreshTTL: 7 * 24 * time.Hour,
		Rotate:     rotate,
		Clock:      clock,
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return manager
}

func TestIssueStoresHashedToken(t *testing.T) {
	store := newMockRefreshStore()
	manager := newTestManager(t, store, false, time.Now)

	access, refresh, err := manager.Issue(context.Background(), "user-1", "STUDENT")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("expected non-empty access and refresh tokens")
	}

	if _, ok := store.records[refresh]; ok {
		t.Fatal("raw refresh token must never be stored")
	}
	rec, ok := store.records[internal.HashToken(refresh)]
	if !ok {
		t.Fatal("expected refresh row keyed by token hash")
	}
	if rec.UserID != "user-1" || rec.Role != "STUDENT" {
		t.Fatalf("unexpected refresh record: %+v", rec)
	}
}

func TestRefreshWithoutRotation(t *testing.T) {
	store := newMockRefreshStore()
	manager := newTestManager(t, store, false, time.Now)

	_, refresh, err := manager.Issue(context.Background(), "user-1", "STUDENT")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	access, rotated, err := manager.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if access == "" {
		t.Fatal("expected a new access token")
	}
	if rotated != "" {
		t.Fatalf("expected no rotated token, got %q", rotated)
	}

	// The original token stays valid without rotation.
	if _, _, err := manager.Refresh(context.Background(), refresh); err != nil {
		t.Fatalf("second Refresh error: %v", err)
	}
}

func TestRefreshWithRotationInvalidatesOldToken(t *testing.T) {
	store := newMockRefreshStore()
	manager := newTestManager(t, store, true, time.Now)

	_, refresh, err := manager.Issue(context.Background(), "user-1", "STUDENT")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	access, rotated, err := manager.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if access == "" || rotated == "" {
		t.Fatal("expected new access and rotated refresh tokens")
	}
	if rotated == refresh {
		t.Fatal("rotated token must differ from the presented token")
	}

	if _, _, err := manager.Refresh(context.Background(), refresh); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh for rotated-out token, got %v", err)
	}
	if _, _, err := manager.Refresh(context.Background(), rotated); err != nil {
		t.Fatalf("Refresh(rotated) error: %v", err)
	}
}

func TestRefreshRejectsUnknownAndEmptyTokens(t *testing.T) {
	store := newMockRefreshStore()
	manager := newTestManager(t, store, false, time.Now)

	if _, _, err := manager.Refresh(context.Background(), "unknown-token"); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh for unknown token, got %v", err)
	}
	if _, _, err := manager.Refresh(context.Background(), ""); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh for empty token, got %v", err)
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMockRefreshStore()
	manager := newTestManager(t, store, false, func() time.Time { return now })

	_, refresh, err := manager.Issue(context.Background(), "user-1", "STUDENT")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	now = now.Add(7*24*time.Hour + time.Second)
	if _, _, err := manager.Refresh(context.Background(), refresh); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh for expired token, got %v", err)
	}
}

func TestRefreshWrapsStoreFailure(t *testing.T) {
	store := newMockRefreshStore()
	store.getErr = errors.New("db down")
	manager := newTestManager(t, store, false, time.Now)

	if _, _, err := manager.Refresh(context.Background(), "some-token"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	store := newMockRefreshStore()
	manager := newTestManager(t, store, false, time.Now)

	_, refresh, err := manager.Issue(context.Background(), "user-1", "STUDENT")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if err := manager.Revoke(context.Background(), refresh); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if err := manager.Revoke(context.Background(), refresh); err != nil {
		t.Fatalf("second Revoke error: %v", err)
	}
	if err := manager.Revoke(context.Background(), ""); err != nil {
		t.Fatalf("Revoke(empty) error: %v", err)
	}

	if _, _, err := manager.Refresh(context.Background(), refresh); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected ErrInvalidRefresh after revoke, got %v", err)
	}
}

func TestPruneExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMockRefreshStore()
	manager := newTestManager(t, store, false, func() time.Time { return now })

	if _, _, err := manager.Issue(context.Background(), "user-1", "STUDENT"); err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, _, err := manager.Issue(context.Background(), "user-2", "RECRUITER"); err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	now = now.Add(8 * 24 * time.Hour)
	pruned, err := manager.PruneExpired(context.Background())
	if err != nil {
		t.Fatalf("PruneExpired error: %v", err)
	}
	if pruned != 2 {
		t.Fatalf("expected 2 pruned rows, got %d", pruned)
	}
	if len(store.records) != 0 {
		t.Fatalf("expected store to be empty, got %d rows", len(store.records))
	}
}
