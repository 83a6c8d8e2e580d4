package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tailorshop/internal/domain"
	custrepo "tailorshop/internal/repository/customer"
	"tailorshop/internal/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when email/password do not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminCredentials is the single staff login, configured out of band.
type AdminCredentials struct {
	Email        string
	PasswordHash string
}

// Service handles customer registration, sign-in and profile flows.
type Service struct {
	repo        custrepo.Repository
	sessions    *session.Manager
	admin       AdminCredentials
	passwordMin int
	logger      *zap.Logger
}

// New creates a Service with sane defaults.
func New(repo custrepo.Repository, sessions *session.Manager, admin AdminCredentials, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		sessions:    sessions,
		admin:       admin,
		passwordMin: 8,
		logger:      logger,
	}
}

// RegisterInput captures fields expected by the register endpoint.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// ProfileInput is the editable part of an account.
type ProfileInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Auth is a signed session together with the account it belongs to.
type Auth struct {
	Token   string          `json:"token"`
	Session session.Session `json:"session"`
	Account *domain.Account `json:"account,omitempty"`
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Auth, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("email", "a valid email is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Create(ctx, domain.Account{
		Email:        email,
		PasswordHash: string(hashed),
		Name:         name,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer registered", zap.String("customer_id", account.ID))
	return s.issue(account)
}

// Login validates credentials and returns a customer session.
func (s *Service) Login(ctx context.Context, email, password string) (*Auth, error) {
	password = strings.TrimSpace(password)
	account, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(account)
}

// AdminLogin signs in the configured staff account.
func (s *Service) AdminLogin(_ context.Context, email, password string) (*Auth, error) {
	if s.admin.Email == "" || s.admin.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !strings.EqualFold(strings.TrimSpace(email), s.admin.Email) {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, sess, err := s.sessions.Issue(session.RoleAdmin, s.admin.Email, s.admin.Email, "Admin")
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin signed in")
	return &Auth{Token: token, Session: sess}, nil
}

// Guest starts an anonymous session that can own a cart.
func (s *Service) Guest() (*Auth, error) {
	token, sess, err := s.sessions.IssueGuest()
	if err != nil {
		return nil, err
	}
	return &Auth{Token: token, Session: sess}, nil
}

// Logout revokes the session until it would have expired.
func (s *Service) Logout(ctx context.Context, sess session.Session) error {
	return s.sessions.Revoke(ctx, sess)
}

func (s *Service) Profile(ctx context.Context, id string) (*domain.Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*domain.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}
	return s.repo.UpdateProfile(ctx, id, custrepo.Profile{
		Name:    name,
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
	})
}

func (s *Service) issue(account *domain.Account) (*Auth, error) {
	token, sess, err := s.sessions.Issue(session.RoleCustomer, account.ID, account.Email, account.Name)
	if err != nil {
		return nil, err
	}
	return &Auth{Token: token, Session: sess, Account: account}, nil
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return domain.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", min))
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return domain.NewValidationError("password", "password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
