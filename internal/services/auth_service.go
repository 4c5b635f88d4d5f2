package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/tenant-task-api/internal/auth"
	"github.com/yukikurage/tenant-task-api/internal/logger"
	"github.com/yukikurage/tenant-task-api/internal/models"
	"github.com/yukikurage/tenant-task-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrTenantExists       = errors.New("tenant already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrAccountRemoved     = errors.New("account no longer matches token")
)

var (
	dummyHashMu  sync.Mutex
	dummyHash    string
	hashPassword = auth.HashPassword
)

// timingHash returns a bcrypt hash compared against when the email is
// unknown, so that login takes the same time either way. A failed build is
// not cached and is retried on the next call.
func timingHash(ctx context.Context) (string, error) {
	dummyHashMu.Lock()
	defer dummyHashMu.Unlock()
	if dummyHash != "" {
		return dummyHash, nil
	}
	hash, err := hashPassword(uuid.NewString())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build timing hash", "error", err)
		return "", err
	}
	dummyHash = hash
	return dummyHash, nil
}

// AuthService handles signup, login and session credentials.
type AuthService struct {
	userRepo    repository.UserRepository
	credentials *auth.CredentialService
	revocations repository.RevocationStore
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, credentials *auth.CredentialService, revocations repository.RevocationStore) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		credentials: credentials,
		revocations: revocations,
	}
}

// SignupInput is a public manager self-registration.
type SignupInput struct {
	TenantID   string
	TenantName string
	Name       string
	Email      string
	Password   string
	Role       string
}

// Signup creates a tenant together with its first manager.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	draft, tenantID, err := validateSignup(input)
	if err != nil {
		return nil, err
	}

	if tenantID == "" {
		tenantID = uuid.NewString()
	} else {
		exists, err := s.userRepo.TenantExists(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to check tenant: %w", err)
		}
		if exists {
			return nil, ErrTenantExists
		}
	}

	user, err := newUser(ctx, s.userRepo, draft)
	if err != nil {
		return nil, err
	}

	tenant := &models.Tenant{ID: tenantID, Name: input.TenantName}
	if tenant.Name == "" {
		tenant.Name = tenantID
	}

	if err := s.userRepo.CreateWithTenant(ctx, user, tenant); err != nil {
		return nil, translateCreateUserError(err)
	}
	return user, nil
}

// newUser checks the email is free and hashes the password.
func newUser(ctx context.Context, repo repository.UserRepository, draft userDraft) (*models.User, error) {
	taken, err := repo.EmailExists(ctx, draft.email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(draft.password)
	if err != nil {
		return nil, err
	}

	return &models.User{
		Name:         draft.name,
		Email:        draft.email,
		PasswordHash: hash,
		Role:         draft.role,
	}, nil
}

func translateCreateUserError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, repository.ErrDuplicateTenant):
		return ErrTenantExists
	default:
		return fmt.Errorf("failed to create user: %w", err)
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Session is the outcome of a successful login.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// Login verifies credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash, hashErr := timingHash(ctx)
			if hashErr != nil {
				return nil, fmt.Errorf("failed to check credentials: %w", hashErr)
			}
			auth.VerifyPassword(input.Password, hash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !auth.VerifyPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.credentials.Issue(user.ID, user.Role, user.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate verifies a token and rejects ones revoked by logout or whose
// account was deleted or no longer has the tenant and role it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (auth.Claims, error) {
	claims, err := s.credentials.Verify(token)
	if err != nil {
		return auth.Claims{}, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return auth.Claims{}, ErrTokenRevoked
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Claims{}, ErrAccountRemoved
		}
		return auth.Claims{}, fmt.Errorf("failed to load account: %w", err)
	}
	if user.TenantID != claims.TenantID || user.Role != claims.Role {
		return auth.Claims{}, ErrAccountRemoved
	}
	return claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims auth.Claims) error {
	if claims.TokenID == "" {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// CurrentUser returns the account behind the claims.
func (s *AuthService) CurrentUser(ctx context.Context, claims auth.Claims) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.TenantID != claims.TenantID {
		return nil, ErrUserNotFound
	}
	return user, nil
}
