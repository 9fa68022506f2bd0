package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-monitor/internal/domain"
)

func TestSessionIssuer_LoginIssuesVerifiableToken(t *testing.T) {
	env := newTestEnv(t)

	sess, err := env.sessions.Login(context.Background(), "engineer1", "eng123")
	require.NoError(t, err)
	assert.Equal(t, "engineer1", sess.User.Username)

	id, err := env.sessions.Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, id.ID)
	assert.Equal(t, "engineer1", id.Username)
	assert.Equal(t, domain.RoleEngineer, id.Role)
}

func TestSessionIssuer_LoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Login(context.Background(), "engineer1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.sessions.Login(context.Background(), "nobody", "eng123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionIssuer_TokenExpiresAfter24Hours(t *testing.T) {
	env := newTestEnv(t)
	issuedAt := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	now := issuedAt

	issuer, err := NewSessionIssuer(env.users, SessionOptions{
		Secret: "test-secret",
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)

	sess, err := issuer.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(24*time.Hour), sess.ExpiresAt)

	now = issuedAt.Add(23*time.Hour + 59*time.Minute)
	_, err = issuer.Verify(sess.Token)
	assert.NoError(t, err)

	now = issuedAt.Add(24*time.Hour + time.Second)
	_, err = issuer.Verify(sess.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionIssuer_RejectsTamperedTokens(t *testing.T) {
	env := newTestEnv(t)
	sess, err := env.sessions.Login(context.Background(), "engineer1", "eng123")
	require.NoError(t, err)

	parts := strings.Split(sess.Token, ".")
	require.Len(t, parts, 3)

	other, err := NewSessionIssuer(env.users, SessionOptions{Secret: "another-secret"})
	require.NoError(t, err)
	forged, _, err := other.Issue(&domain.User{ID: sess.User.ID, Username: "engineer1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 1, Username: "admin", Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":        "not-a-token",
		"empty":          "",
		"bad signature":  parts[0] + "." + parts[1] + ".AAAA",
		"other secret":   forged,
		"alg none":       unsigned,
		"swapped claims": parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2],
	} {
		_, err := env.sessions.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestNewSessionIssuer_RequiresSecret(t *testing.T) {
	_, err := NewSessionIssuer(nil, SessionOptions{})
	assert.Error(t, err)
}
