package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFTokenRoundTrip(t *testing.T) {
	manager := NewCSRFManager("kunci-rahasia")

	token := manager.TokenFor("session-token")
	require.NotEmpty(t, token)
	assert.NoError(t, manager.Verify("session-token", token))
}

func TestCSRFTokenBoundToSession(t *testing.T) {
	manager := NewCSRFManager("kunci-rahasia")

	token := manager.TokenFor("session-a")
	assert.ErrorIs(t, manager.Verify("session-b", token), ErrCSRFTokenMismatch)
}

func TestCSRFTokenMissing(t *testing.T) {
	manager := NewCSRFManager("kunci-rahasia")

	assert.ErrorIs(t, manager.Verify("session-token", ""), ErrCSRFTokenMissing)
}

func TestCSRFTokenDifferentSecrets(t *testing.T) {
	token := NewCSRFManager("kunci-satu").TokenFor("session-token")

	assert.ErrorIs(t, NewCSRFManager("kunci-dua").Verify("session-token", token), ErrCSRFTokenMismatch)
}
