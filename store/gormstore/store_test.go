package gormstore

import (
	"context"
	"errors"
	"testing"
	"time"

	portalauth "github.com/charansai0108/portal-auth"
	"github.com/charansai0108/portal-auth/otp"
	"github.com/charansai0108/portal-auth/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}
	return store
}

func createTestUser(t *testing.T, store *Store, email string, role portalauth.Role) portalauth.UserRecord {
	t.Helper()

	now := time.Now().UTC()
	user, err := store.CreateUser(context.Background(), portalauth.CreateUserInput{
		Email:           email,
		PasswordHash:    "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		Role:            role,
		Status:          portalauth.StatusActive,
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	})
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	return user
}

func TestCreateUserAndLookup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := createTestUser(t, store, "student@campus.edu", portalauth.RoleStudent)
	if created.UserID == "" {
		t.Fatal("expected a generated user id")
	}

	byEmail, err := store.GetUserByEmail(ctx, "student@campus.edu")
	if err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if byEmail.UserID != created.UserID || byEmail.Role != portalauth.RoleStudent {
		t.Fatalf("unexpected record: %+v", byEmail)
	}
	if !byEmail.EmailVerified {
		t.Fatal("expected email_verified to persist")
	}

	byID, err := store.GetUserByID(ctx, created.UserID)
	if err != nil {
		t.Fatalf("GetUserByID error: %v", err)
	}
	if byID.Email != "student@campus.edu" {
		t.Fatalf("unexpected email: %q", byID.Email)
	}

	if _, err := store.GetUserByEmail(ctx, "nobody@campus.edu"); !errors.Is(err, portalauth.ErrProviderUserNotFound) {
		t.Fatalf("expected ErrProviderUserNotFound, got %v", err)
	}
	if _, err := store.GetUserByID(ctx, "missing-id"); !errors.Is(err, portalauth.ErrProviderUserNotFound) {
		t.Fatalf("expected ErrProviderUserNotFound, got %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store := newTestStore(t)

	createTestUser(t, store, "student@campus.edu", portalauth.RoleStudent)

	_, err := store.CreateUser(context.Background(), portalauth.CreateUserInput{
		Email:        "student@campus.edu",
		PasswordHash: "hash",
		Role:         portalauth.RoleStudent,
		Status:       portalauth.StatusActive,
	})
	if !errors.Is(err, portalauth.ErrProviderDuplicateEmail) {
		t.Fatalf("expected ErrProviderDuplicateEmail, got %v", err)
	}
}

func TestCreateUserWritesRoleProfile(t *testing.T) {
	store := newTestStore(t)

	student := createTestUser(t, store, "student@campus.edu", portalauth.RoleStudent)
	recruiter := createTestUser(t, store, "hr@acme.example", portalauth.RoleRecruiter)

	var studentProfiles int64
	if err := store.db.Model(&StudentProfile{}).Where("user_id = ?", student.UserID).Count(&studentProfiles).Error; err != nil {
		t.Fatalf("count student profiles: %v", err)
	}
	if studentProfiles != 1 {
		t.Fatalf("expected 1 student profile, got %d", studentProfiles)
	}

	var recruiterProfiles int64
	if err := store.db.Model(&RecruiterProfile{}).Where("user_id = ?", recruiter.UserID).Count(&recruiterProfiles).Error; err != nil {
		t.Fatalf("count recruiter profiles: %v", err)
	}
	if recruiterProfiles != 1 {
		t.Fatalf("expected 1 recruiter profile, got %d", recruiterProfiles)
	}
}

func TestUpdatePasswordHash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "student@campus.edu", portalauth.RoleStudent)

	if err := store.UpdatePasswordHash(ctx, user.UserID, "new-hash"); err != nil {
		t.Fatalf("UpdatePasswordHash error: %v", err)
	}
	updated, err := store.GetUserByID(ctx, user.UserID)
	if err != nil {
		t.Fatalf("GetUserByID error: %v", err)
	}
	if updated.PasswordHash != "new-hash" {
		t.Fatalf("expected new hash, got %q", updated.PasswordHash)
	}

	if err := store.UpdatePasswordHash(ctx, "missing-id", "x"); !errors.Is(err, portalauth.ErrProviderUserNotFound) {
		t.Fatalf("expected ErrProviderUserNotFound, got %v", err)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "student@campus.edu", portalauth.RoleStudent)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.UpdateLastLogin(ctx, user.UserID, at); err != nil {
		t.Fatalf("UpdateLastLogin error: %v", err)
	}

	updated, err := store.GetUserByID(ctx, user.UserID)
	if err != nil {
		t.Fatalf("GetUserByID error: %v", err)
	}
	if updated.LastLoginAt == nil || !updated.LastLoginAt.Equal(at) {
		t.Fatalf("unexpected last login: %v", updated.LastLoginAt)
	}
}

func TestInvalidateThenCreateKeepsOneLiveCode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := otp.Code{
		Email:     "student@campus.edu",
		Code:      "111111",
		Purpose:   otp.PurposeVerifyEmail,
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
	if err := store.InvalidateThenCreate(ctx, first, now); err != nil {
		t.Fatalf("InvalidateThenCreate(first) error: %v", err)
	}

	second := first
	second.Code = "222222"
	if err := store.InvalidateThenCreate(ctx, second, now); err != nil {
		t.Fatalf("InvalidateThenCreate(second) error: %v", err)
	}

	if err := store.ConsumeLatest(ctx, "student@campus.edu", "111111", otp.PurposeVerifyEmail, now); !errors.Is(err, otp.ErrNoMatch) {
		t.Fatalf("expected superseded code to be rejected, got %v", err)
	}
	if err := store.ConsumeLatest(ctx, "student@campus.edu", "222222", otp.PurposeVerifyEmail, now); err != nil {
		t.Fatalf("expected latest code to consume, got %v", err)
	}
}

func TestInvalidateThenCreateScopedByPurpose(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	verify := otp.Code{
		Email:     "student@campus.edu",
		Code:      "111111",
		Purpose:   otp.PurposeVerifyEmail,
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
	if err := store.InvalidateThenCreate(ctx, verify, now); err != nil {
		t.Fatalf("InvalidateThenCreate(verify) error: %v", err)
	}

	reset := otp.Code{
		Email:     "student@campus.edu",
		Code:      "333333",
		Purpose:   otp.PurposeResetPassword,
		ExpiresAt: now.Add(10 * time.Minute),
		CreatedAt: now,
	}
	if err := store.InvalidateThenCreate(ctx, reset, now); err != nil {
		t.Fatalf("InvalidateThenCreate(reset) error: %v", err)
	}

	// Issuing a reset code must not invalidate the verify code.
	if err := store.ConsumeLatest(ctx, "student@campus.edu", "111111", otp.PurposeVerifyEmail, now); err != nil {
		t.Fatalf("expected verify code to survive, got %v", err)
	}
}

func TestConsumeLatestSingleUse(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := otp.Code{
		Email:     "student@campus.edu",
		Code:      "123456",
		Purpose:   otp.PurposeVerifyEmail,
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
	if err := store.InvalidateThenCreate(ctx, rec, now); err != nil {
		t.Fatalf("InvalidateThenCreate error: %v", err)
	}

	if err := store.ConsumeLatest(ctx, "student@campus.edu", "123456", otp.PurposeVerifyEmail, now); err != nil {
		t.Fatalf("first consume error: %v", err)
	}
	if err := store.ConsumeLatest(ctx, "student@campus.edu", "123456", otp.PurposeVerifyEmail, now); !errors.Is(err, otp.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch on reuse, got %v", err)
	}
}

func TestConsumeLatestRejectsWrongCodeAndExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := otp.Code{
		Email:     "student@campus.edu",
		Code:      "123456",
		Purpose:   otp.PurposeVerifyEmail,
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
	if err := store.InvalidateThenCreate(ctx, rec, now); err != nil {
		t.Fatalf("InvalidateThenCreate error: %v", err)
	}

	if err := store.ConsumeLatest(ctx, "student@campus.edu", "654321", otp.PurposeVerifyEmail, now); !errors.Is(err, otp.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for wrong code, got %v", err)
	}

	after := now.Add(6 * time.Minute)
	if err := store.ConsumeLatest(ctx, "student@campus.edu", "123456", otp.PurposeVerifyEmail, after); !errors.Is(err, otp.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for expired code, got %v", err)
	}
}

func TestLatestUsedAfter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := otp.Code{
		Email:     "student@campus.edu",
		Code:      "123456",
		Purpose:   otp.PurposeVerifyEmail,
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
	if err := store.InvalidateThenCreate(ctx, rec, now); err != nil {
		t.Fatalf("InvalidateThenCreate error: %v", err)
	}

	ok, err := store.LatestUsedAfter(ctx, "student@campus.edu", otp.PurposeVerifyEmail, now.Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("LatestUsedAfter error: %v", err)
	}
	if ok {
		t.Fatal("unconsumed code must not count as verified")
	}

	if err := store.ConsumeLatest(ctx, "student@campus.edu", "123456", otp.PurposeVerifyEmail, now); err != nil {
		t.Fatalf("ConsumeLatest error: %v", err)
	}

	ok, err = store.LatestUsedAfter(ctx, "student@campus.edu", otp.PurposeVerifyEmail, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("LatestUsedAfter error: %v", err)
	}
	if !ok {
		t.Fatal("expected consumption inside window to report true")
	}

	ok, err = store.LatestUsedAfter(ctx, "student@campus.edu", otp.PurposeVerifyEmail, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("LatestUsedAfter error: %v", err)
	}
	if ok {
		t.Fatal("expected consumption before cutoff to report false")
	}
}

func TestRefreshTokenLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := session.RefreshRecord{
		UserID:    "user-1",
		Role:      "STUDENT",
		TokenHash: "aaaa",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	if err := store.CreateRefreshToken(ctx, rec); err != nil {
		t.Fatalf("CreateRefreshToken error: %v", err)
	}

	got, err := store.GetRefreshToken(ctx, "aaaa")
	if err != nil {
		t.Fatalf("GetRefreshToken error: %v", err)
	}
	if got.UserID != "user-1" || got.Role != "STUDENT" {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, err := store.GetRefreshToken(ctx, "missing"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.DeleteRefreshToken(ctx, "aaaa"); err != nil {
		t.Fatalf("DeleteRefreshToken error: %v", err)
	}
	if err := store.DeleteRefreshToken(ctx, "aaaa"); err != nil {
		t.Fatalf("expected idempotent delete, got %v", err)
	}
	if _, err := store.GetRefreshToken(ctx, "aaaa"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestReplaceRefreshToken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := session.RefreshRecord{
		UserID:    "user-1",
		Role:      "STUDENT",
		TokenHash: "old-hash",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	if err := store.CreateRefreshToken(ctx, old); err != nil {
		t.Fatalf("CreateRefreshToken error: %v", err)
	}

	next := old
	next.TokenHash = "new-hash"
	if err := store.ReplaceRefreshToken(ctx, "old-hash", next); err != nil {
		t.Fatalf("ReplaceRefreshToken error: %v", err)
	}

	if _, err := store.GetRefreshToken(ctx, "old-hash"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected old hash gone, got %v", err)
	}
	if _, err := store.GetRefreshToken(ctx, "new-hash"); err != nil {
		t.Fatalf("GetRefreshToken(new) error: %v", err)
	}
}

func TestPruneExpiredRefreshTokens(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := session.RefreshRecord{
		UserID:    "user-1",
		Role:      "STUDENT",
		TokenHash: "expired-hash",
		ExpiresAt: now.Add(-time.Hour),
		CreatedAt: now.Add(-2 * time.Hour),
	}
	live := session.RefreshRecord{
		UserID:    "user-1",
		Role:      "STUDENT",
		TokenHash: "live-hash",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	if err := store.CreateRefreshToken(ctx, expired); err != nil {
		t.Fatalf("CreateRefreshToken(expired) error: %v", err)
	}
	if err := store.CreateRefreshToken(ctx, live); err != nil {
		t.Fatalf("CreateRefreshToken(live) error: %v", err)
	}

	pruned, err := store.PruneExpiredRefreshTokens(ctx, now)
	if err != nil {
		t.Fatalf("PruneExpiredRefreshTokens error: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned row, got %d", pruned)
	}
	if _, err := store.GetRefreshToken(ctx, "live-hash"); err != nil {
		t.Fatalf("expected live token to survive, got %v", err)
	}
}
