package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_GenerateValidate(t *testing.T) {
	m := NewJWTManager("test-secret")
	token, err := m.Generate("alice", time.Hour)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID)
	assert.Equal(t, "alice", claims.Subject)

	_, err = m.Generate(" ", time.Hour)
	assert.Error(t, err)
}

func TestJWTManager_RejectsBadTokens(t *testing.T) {
	m := NewJWTManager("test-secret")
	token, err := m.Generate("alice", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTManager("other-secret").Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTManager("test-secret")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Generate("alice", time.Hour)
	require.NoError(t, err)
	_, err = m.Validate(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "alice"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticator_UserID(t *testing.T) {
	m := NewJWTManager("test-secret")
	token, err := m.Generate("bob", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		disabled bool
		setup    func(r *http.Request)
		want     string
		wantErr  error
	}{
		{name: "bearer header", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, want: "bob"},
		{name: "query token", setup: func(r *http.Request) {
			q := r.URL.Query()
			q.Set("access_token", token)
			r.URL.RawQuery = q.Encode()
		}, want: "bob"},
		{name: "missing token", setup: func(*http.Request) {}, wantErr: ErrMissingToken},
		{name: "wrong scheme", setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, wantErr: ErrMissingToken},
		{name: "garbage token", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") }, wantErr: ErrInvalidToken},
		{name: "disabled default user", disabled: true, setup: func(*http.Request) {}, want: DefaultUser},
		{name: "disabled header user", disabled: true, setup: func(r *http.Request) { r.Header.Set(UserHeader, "carol") }, want: "carol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
			tt.setup(r)
			got, err := NewAuthenticator(m, tt.disabled).UserID(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserFromContext(WithUser(context.Background(), "dave"))
	assert.True(t, ok)
	assert.Equal(t, "dave", id)
}
