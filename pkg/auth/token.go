package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "flicktionary"

// minSecretLen is the recommended HMAC-SHA256 key size.
const minSecretLen = 32

var ErrShortSecret = errors.New("jwt secret key is shorter than 32 bytes")

// TokenManager issues and validates bearer tokens.
type TokenManager interface {
	Generate(userAccountID int64, nickname, role string) (string, error)
	Validate(tokenString string) (*Claims, error)
}

type jwtManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// Claims is the payload carried by review-service tokens.
type Claims struct {
	UserAccountID int64  `json:"user_account_id"`
	Nickname      string `json:"nickname"`
	Role          string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// NewTokenManager builds an HS256 token manager. Short keys are rejected
// unless allowShort is set (development only).
func NewTokenManager(secretKey string, tokenDuration time.Duration, allowShort bool) (TokenManager, error) {
	if secretKey == "" {
		return nil, errors.New("jwt secret key cannot be empty")
	}
	if len(secretKey) < minSecretLen && !allowShort {
		return nil, ErrShortSecret
	}
	if tokenDuration <= 0 {
		return nil, fmt.Errorf("token duration must be positive, got %s", tokenDuration)
	}
	return &jwtManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}, nil
}

// Generate signs a token for the given account.
func (m *jwtManager) Generate(userAccountID int64, nickname, role string) (string, error) {
	if userAccountID <= 0 {
		return "", fmt.Errorf("invalid user account id %d", userAccountID)
	}
	now := m.now()
	claims := &Claims{
		UserAccountID: userAccountID,
		Nickname:      nickname,
		Role:          role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userAccountID),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Validate parses tokenString and returns its claims.
func (m *jwtManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserAccountID <= 0 {
		return nil, errors.New("token carries no user account")
	}
	return claims, nil
}
