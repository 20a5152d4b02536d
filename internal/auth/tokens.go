package auth

import (
	"errors"
	"fmt"
	"time"

	"fxgate/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

type Claims struct {
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token together with the claims it was built from.
type IssuedToken struct {
	Value     string
	JTI       uuid.UUID
	ExpiresAt time.Time
}

type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func (m *TokenManager) IssueAccess(userID uuid.UUID) (IssuedToken, error) {
	return m.issue(userID, AccessToken, m.accessTTL)
}

func (m *TokenManager) IssueRefresh(userID uuid.UUID) (IssuedToken, error) {
	return m.issue(userID, RefreshToken, m.refreshTTL)
}

func (m *TokenManager) issue(userID uuid.UUID, typ TokenType, ttl time.Duration) (IssuedToken, error) {
	now := m.now()
	jti := uuid.New()
	claims := Claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Issuer:    m.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return IssuedToken{Value: signed, JTI: jti, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Parse validates signature, expiry, issuer and the expected token type.
func (m *TokenManager) Parse(raw string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if !token.Valid || claims.TokenType != want {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// UserID extracts the subject as a user id.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", domain.ErrInvalidToken)
	}
	return id, nil
}

// JTI extracts the token id.
func (c *Claims) JTI() (uuid.UUID, error) {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad jti", domain.ErrInvalidToken)
	}
	return id, nil
}

func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}
