package customer

import (
	"context"
	"strings"
	"testing"
	"time"

	"tailorshop/internal/domain"
	custrepo "tailorshop/internal/repository/customer"
	"tailorshop/internal/session"

	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// memoryRepo is a lightweight in-memory customer repository for tests.
type memoryRepo struct {
	byEmail map[string]domain.Account
}

type memoryTokenRepo struct {
	revoked map[string]time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byEmail: make(map[string]domain.Account)}
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{revoked: make(map[string]time.Time)}
}

func (r *memoryTokenRepo) Revoke(_ context.Context, tokenID, _ string, expiresAt time.Time) error {
	r.revoked[tokenID] = expiresAt
	return nil
}

func (r *memoryTokenRepo) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := r.revoked[tokenID]
	return ok, nil
}

func (r *memoryTokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, exp := range r.revoked {
		if exp.Before(before) {
			delete(r.revoked, id)
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) Create(_ context.Context, a domain.Account) (*domain.Account, error) {
	key := strings.ToLower(a.Email)
	if _, exists := r.byEmail[key]; exists {
		return nil, domain.ErrAlreadyExists
	}
	clone := a
	if clone.ID == "" {
		clone.ID = "cust-" + key
	}
	r.byEmail[key] = clone
	return &clone, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	if a, ok := r.byEmail[strings.ToLower(email)]; ok {
		clone := a
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	for _, a := range r.byEmail {
		if a.ID == id {
			clone := a
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) UpdateProfile(_ context.Context, id string, p custrepo.Profile) (*domain.Account, error) {
	for key, a := range r.byEmail {
		if a.ID == id {
			a.Name, a.Phone, a.Address = p.Name, p.Phone, p.Address
			r.byEmail[key] = a
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func newTestService(t *testing.T, admin AdminCredentials) (*Service, *session.Manager, *memoryTokenRepo) {
	t.Helper()
	tokens := newMemoryTokenRepo()
	sessions := session.NewManager(testSecret, time.Hour, tokens)
	return New(newMemoryRepo(), sessions, admin, nil), sessions, tokens
}

func TestRegisterAndLogin_SucceedsWithTrimmedPassword(t *testing.T) {
	svc, sessions, _ := newTestService(t, AdminCredentials{})
	ctx := context.Background()
	rawPassword := " Abcdefg1 " // includes whitespace

	auth, err := svc.Register(ctx, RegisterInput{
		Email:    "User@Example.com",
		Password: rawPassword,
		Name:     "Test User",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if auth.Account == nil || auth.Account.Email != "user@example.com" {
		t.Fatalf("unexpected account %+v", auth.Account)
	}

	login, err := svc.Login(ctx, "user@example.com", "Abcdefg1")
	if err != nil {
		t.Fatalf("login failed with trimmed password: %v", err)
	}
	sess, err := sessions.Parse(ctx, login.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if sess.Role != session.RoleCustomer || sess.Subject != auth.Account.ID || sess.Email != "user@example.com" {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestRegister_RequiresNameAndEmail(t *testing.T) {
	svc, _, _ := newTestService(t, AdminCredentials{})
	if _, err := svc.Register(context.Background(), RegisterInput{Email: "nope", Password: "Abcdefg1", Name: "N"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for email, got %v", err)
	}
	if _, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "Abcdefg1"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for name, got %v", err)
	}
}

func TestValidatePassword_FailsOnWeakValues(t *testing.T) {
	cases := []struct {
		name string
		pass string
	}{
		{"too short", "Abc1"},
		{"no upper", "abcdefg1"},
		{"no lower", "ABCDEFG1"},
		{"no digit", "Abcdefgh"},
	}
	for _, tc := range cases {
		if err := validatePassword(tc.pass, 8); !domain.IsValidation(err) {
			t.Fatalf("expected validation error for case %s, got %v", tc.name, err)
		}
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _, _ := newTestService(t, AdminCredentials{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{
		Email:    "user@example.com",
		Password: "Abcdefg1",
		Name:     "T",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "user@example.com", "wrongpass"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "missing@example.com", "Abcdefg1"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for missing user, got %v", err)
	}
}

func TestAdminLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Staff1234"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	svc, _, _ := newTestService(t, AdminCredentials{Email: "admin@shop.test", PasswordHash: string(hash)})

	auth, err := svc.AdminLogin(context.Background(), "ADMIN@shop.test", "Staff1234")
	if err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	if !auth.Session.IsAdmin() {
		t.Fatalf("expected admin session, got %+v", auth.Session)
	}
	if _, err := svc.AdminLogin(context.Background(), "admin@shop.test", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAdminLogin_DisabledWithoutConfig(t *testing.T) {
	svc, _, _ := newTestService(t, AdminCredentials{})
	if _, err := svc.AdminLogin(context.Background(), "", ""); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, sessions, _ := newTestService(t, AdminCredentials{})
	ctx := context.Background()
	auth, err := svc.Guest()
	if err != nil {
		t.Fatalf("Guest: %v", err)
	}
	if err := svc.Logout(ctx, auth.Session); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := sessions.Parse(ctx, auth.Token); err != session.ErrInvalidToken {
		t.Fatalf("expected revoked token to be invalid, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newTestService(t, AdminCredentials{})
	ctx := context.Background()
	auth, err := svc.Register(ctx, RegisterInput{Email: "p@example.com", Password: "Abcdefg1", Name: "P"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	updated, err := svc.UpdateProfile(ctx, auth.Account.ID, ProfileInput{Name: " Priya ", Phone: "999", Address: "Main St"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Name != "Priya" || updated.Contact().Address != "Main St" {
		t.Fatalf("unexpected profile %+v", updated)
	}
}

func TestSweeperDropsExpired(t *testing.T) {
	tokens := newMemoryTokenRepo()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tokens.revoked["old"] = now.Add(-time.Minute)
	tokens.revoked["live"] = now.Add(time.Minute)

	sw := NewSweeper(tokens, time.Minute, nil)
	sw.now = func() time.Time { return now }
	if n := sw.Sweep(context.Background()); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}
	if _, ok := tokens.revoked["live"]; !ok {
		t.Fatalf("live revocation must be kept")
	}
}
