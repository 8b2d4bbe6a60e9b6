package app

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"decodex/internal/domain"
)

// Token roles.
const (
	RoleTeam  = "team"
	RoleAdmin = "admin"
)

// DefaultTokenTTL is used when no token lifetime is configured.
const DefaultTokenTTL = 24 * time.Hour

// Claims identifies the bearer of a token. Subject is the team name or the admin user.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig configures token issuing and the admin account.
type AuthConfig struct {
	Secret            string
	TokenTTL          time.Duration
	AdminUser         string
	AdminPasswordHash string
}

// Authenticator issues and verifies HS256 tokens and checks passwords.
type Authenticator struct {
	secret    []byte
	ttl       time.Duration
	adminUser string
	adminHash string
	now       func() time.Time
}

func NewAuthenticator(cfg AuthConfig) (*Authenticator, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &Authenticator{
		secret:    []byte(cfg.Secret),
		ttl:       cfg.TokenTTL,
		adminUser: cfg.AdminUser,
		adminHash: cfg.AdminPasswordHash,
		now:       time.Now,
	}, nil
}

// Issue signs a token for subject with the given role.
func (a *Authenticator) Issue(subject, role string) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims. Any failure is ErrUnauthorized.
func (a *Authenticator) Parse(raw string) (Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	if claims.Subject == "" || (claims.Role != RoleTeam && claims.Role != RoleAdmin) {
		return Claims{}, fmt.Errorf("token without subject or role: %w", domain.ErrUnauthorized)
	}
	return *claims, nil
}

// AdminLogin checks the configured admin credentials and issues an admin token.
func (a *Authenticator) AdminLogin(user, password string) (string, error) {
	if a.adminUser == "" || a.adminHash == "" {
		return "", fmt.Errorf("admin login disabled: %w", domain.ErrUnauthorized)
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.adminUser)) == 1
	if !VerifyPassword(a.adminHash, password) || !userOK {
		return "", domain.ErrBadCredentials
	}
	return a.Issue(a.adminUser, RoleAdmin)
}

// HashPassword creates a bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword checks if a password matches the hashed version.
func VerifyPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
