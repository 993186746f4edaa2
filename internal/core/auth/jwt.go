package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"estate-api/internal/domain"
)

// Kind separates the two token classes. Verify refuses a token whose kind
// claim does not match the requested one, so an access token can never stand
// in for a refresh token or the other way round.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims carried by every token. All timestamps are epoch seconds
// (jwt.NumericDate); nothing in this service emits millisecond claims.
type Claims struct {
	UID   uint   `json:"uid"`
	Role  string `json:"role"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Kind  Kind   `json:"kind"`
	jwt.RegisteredClaims
}

type Tokens struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration

	// Now is the clock; overridable in tests to simulate expiry.
	Now func() time.Time
}

// New fails when either secret is empty: a missing secret is a deployment
// error and must stop the process at startup, not surface per-request.
func New(accessSecret, refreshSecret, issuer string, accessTTL, refreshTTL time.Duration) (*Tokens, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("auth: both signing secrets are required")
	}
	return &Tokens{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		Now:           time.Now,
	}, nil
}

func (t *Tokens) secret(kind Kind) []byte {
	if kind == KindRefresh {
		return t.refreshSecret
	}
	return t.accessSecret
}

func (t *Tokens) ttl(kind Kind) time.Duration {
	if kind == KindRefresh {
		return t.refreshTTL
	}
	return t.accessTTL
}

func (t *Tokens) Issue(u *domain.User, kind Kind) (string, error) {
	now := t.Now()
	claims := Claims{
		UID:   u.ID,
		Role:  string(u.Role),
		Email: u.Email,
		Phone: u.PhoneNumber,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl(kind))),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret(kind))
}

// IssuePair mints a fresh access+refresh pair for the same user.
func (t *Tokens) IssuePair(u *domain.User) (access, refresh string, err error) {
	if access, err = t.Issue(u, KindAccess); err != nil {
		return "", "", err
	}
	if refresh, err = t.Issue(u, KindRefresh); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Verify fails closed: malformed input, wrong signature, expired exp and a
// mismatched kind all come back as domain.ErrInvalidToken with no payload.
func (t *Tokens) Verify(tokenStr string, kind Kind) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg %v", token.Header["alg"])
		}
		return t.secret(kind), nil
	},
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(func() time.Time { return t.Now() }),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Kind != kind {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// RefreshTTL exposes the configured refresh lifetime for rotation-store TTLs.
func (t *Tokens) RefreshTTL() time.Duration { return t.refreshTTL }
