package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/backoffice-crm/backoffice-crm/internal"
)

// Claims is the signed token payload shared by access and refresh tokens.
// UserID shadows the registered "sub" claim so it travels as an integer.
type Claims struct {
	UserID      int64   `json:"sub"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	AccountType *string `json:"type"`
	jwt.RegisteredClaims
}

// Principal is the per-request identity decoded from a verified access
// token. The role name is the one baked in at issuance; a demotion only
// takes effect once the client refreshes.
type Principal struct {
	ID          int64
	Email       string
	Role        string
	AccountType *string
}

// Account is the auth package's view of a stored principal row. The
// password hash never leaves this package.
type Account struct {
	ID           int64
	EmployeeID   string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	RoleID       int64
	RoleName     string
	Department   *string
	Status       string
	AccountType  *string
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Profile is the credential-free shape returned to clients.
type Profile struct {
	ID          int64    `json:"id"`
	EmployeeID  string   `json:"employee_id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Role        string   `json:"role"`
	Department  *string  `json:"department"`
	Status      string   `json:"status"`
	AccountType *string  `json:"account_type"`
	Permissions []string `json:"permissions,omitempty"`
}

func (a *Account) ToProfile() *Profile {
	return &Profile{
		ID:          a.ID,
		EmployeeID:  a.EmployeeID,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Role:        a.RoleName,
		Department:  a.Department,
		Status:      a.Status,
		AccountType: a.AccountType,
	}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenGenerator issues and verifies the two token variants.
type TokenGenerator interface {
	GeneratePair(account *Account) (TokenPair, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// JWTTokenGenerator signs HS256 tokens with a distinct secret per variant.
type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// GeneratePair issues a fresh access/refresh token pair from the current
// account state, so a role change is picked up on the next refresh.
func (j *JWTTokenGenerator) GeneratePair(account *Account) (TokenPair, error) {
	accessToken, err := j.sign(account, j.AccessTokenSecret, j.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := j.sign(account, j.RefreshTokenSecret, j.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (j *JWTTokenGenerator) sign(account *Account, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:      account.ID,
		Email:       account.Email,
		Role:        account.RoleName,
		AccountType: account.AccountType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateAccessToken verifies signature and expiry against the access
// secret. Pure computation, no store round trip.
func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.AccessTokenSecret)
}

// ValidateRefreshToken verifies signature and expiry against the refresh
// secret. An access token presented here fails the signature check.
func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		// the caller only ever sees a generic unauthorized error
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, internal.ErrInvalidToken
	}

	return claims, nil
}
