package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grameen_connect/internal/models"
)

type memoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (m *memoryRevoker) Revoke(_ context.Context, jti string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked == nil {
		m.revoked = map[string]time.Time{}
	}
	m.revoked[jti] = until
	return nil
}

func (m *memoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

var kamal = models.User{ID: 7, Email: "kamal@example.com", Role: models.RoleHelpSeeker}

func TestGenerateAndValidate(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, nil)
	tok, err := m.Generate(kamal)
	require.NoError(t, err)

	claims, err := m.Validate(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "kamal@example.com", claims.Email)
	assert.Equal(t, models.RoleHelpSeeker, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestValidateRejectsExpired(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute, nil)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	tok, err := m.Generate(kamal)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(context.Background(), tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	tok, err := NewTokenManager("one", time.Hour, nil).Generate(kamal)
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour, nil).Validate(context.Background(), tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsUnsignedToken(t *testing.T) {
	claims := Claims{UserID: 1, Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("test-secret", time.Hour, nil).Validate(context.Background(), tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	rev := &memoryRevoker{}
	m := NewTokenManager("test-secret", time.Hour, rev)
	tok, err := m.Generate(kamal)
	require.NoError(t, err)

	claims, err := m.Validate(context.Background(), tok)
	require.NoError(t, err)
	require.NoError(t, m.Revoke(context.Background(), claims))

	_, err = m.Validate(context.Background(), tok)
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
