package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// DefaultUser is the identity used when authentication is disabled and the
// request names no user.
const DefaultUser = "local"

// UserHeader names the user when authentication is disabled.
const UserHeader = "X-User-ID"

// JWTManager handles JWT token generation and validation.
type JWTManager struct {
	secretKey []byte
	now       func() time.Time
}

// Claims carries the user a token was issued to.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func NewJWTManager(secretKey string) *JWTManager {
	return &JWTManager{secretKey: []byte(secretKey), now: time.Now}
}

// Generate signs a token for userID that expires after ttl.
func (m *JWTManager) Generate(userID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id is required")
	}
	now := m.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate parses and validates a token, returning its claims.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type contextKey struct{}

// WithUser returns ctx carrying userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserFromContext returns the authenticated user ID.
func UserFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Authenticator resolves the user of an HTTP request.
type Authenticator struct {
	jwt      *JWTManager
	disabled bool
}

// NewAuthenticator validates bearer tokens with m. When disabled, the user
// comes from the X-User-ID header or defaults to DefaultUser.
func NewAuthenticator(m *JWTManager, disabled bool) *Authenticator {
	return &Authenticator{jwt: m, disabled: disabled}
}

// UserID extracts the user of r. The access_token query parameter is
// accepted for clients that cannot set headers, such as EventSource.
func (a *Authenticator) UserID(r *http.Request) (string, error) {
	if a.disabled {
		if id := strings.TrimSpace(r.Header.Get(UserHeader)); id != "" {
			return id, nil
		}
		return DefaultUser, nil
	}

	token := bearerToken(r)
	if token == "" {
		return "", ErrMissingToken
	}
	claims, err := a.jwt.Validate(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}
