package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yukikurage/tenant-task-api/internal/models"
)

var (
	// ErrInvalidCredential covers malformed tokens, bad signatures and
	// unexpected algorithms. The caller should never retry with the same token.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrCredentialExpired means the token was genuine but must be renewed by
	// logging in again.
	ErrCredentialExpired = errors.New("credential expired")
)

// Claims is the verified identity carried by a credential.
type Claims struct {
	UserID    string
	Role      models.Role
	TenantID  string
	TokenID   string
	ExpiresAt time.Time
}

// IsManager reports whether the claims carry the manager role.
func (c Claims) IsManager() bool {
	return c.Role == models.RoleManager
}

type tokenClaims struct {
	UserID   string `json:"uid"`
	Role     string `json:"role"`
	TenantID string `json:"tid"`
	jwt.RegisteredClaims
}

// CredentialService issues and verifies HS256 tokens with a process-wide secret.
type CredentialService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewCredentialService creates a CredentialService.
func NewCredentialService(secret string, ttl time.Duration, issuer string) *CredentialService {
	return &CredentialService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// WithClock returns a copy of s that reads time from now. Used by tests.
func (s *CredentialService) WithClock(now func() time.Time) *CredentialService {
	cp := *s
	cp.now = now
	return &cp
}

// Issue signs a token for the given identity and returns it with its expiry.
func (s *CredentialService) Issue(userID string, role models.Role, tenantID string) (string, time.Time, error) {
	if userID == "" || tenantID == "" || !role.Valid() {
		return "", time.Time{}, fmt.Errorf("issue credential: incomplete identity")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := tokenClaims{
		UserID:   userID,
		Role:     string(role),
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign credential: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm, issuer and expiry and returns the claims.
func (s *CredentialService) Verify(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrInvalidCredential
	}

	var tc tokenClaims
	_, err := jwt.ParseWithClaims(token, &tc, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrCredentialExpired
		}
		return Claims{}, ErrInvalidCredential
	}

	role := models.Role(tc.Role)
	if !role.Valid() || tc.UserID == "" || tc.TenantID == "" {
		return Claims{}, ErrInvalidCredential
	}

	return Claims{
		UserID:    tc.UserID,
		Role:      role,
		TenantID:  tc.TenantID,
		TokenID:   tc.ID,
		ExpiresAt: tc.ExpiresAt.Time,
	}, nil
}
