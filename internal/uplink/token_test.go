package uplink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTrip(t *testing.T) {
	signer := NewSigner("secret", 5*time.Minute)

	token, err := signer.Issue(Claims{
		UserID:       42,
		UserName:     "Иванов Иван Иванович",
		HomeworkID:   7,
		HomeworkName: "Алгебра 5",
		GroupTitle:   "8Б",
	})
	require.NoError(t, err)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, int64(7), claims.HomeworkID)
	assert.Equal(t, "Алгебра 5", claims.HomeworkName)
	assert.Equal(t, "8Б", claims.GroupTitle)
}

func TestSigner_Expired(t *testing.T) {
	signer := NewSigner("secret", -time.Minute)

	token, err := signer.Issue(Claims{UserID: 42, HomeworkID: 7})
	require.NoError(t, err)

	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_Tampered(t *testing.T) {
	signer := NewSigner("secret", 5*time.Minute)

	token, err := signer.Issue(Claims{UserID: 42, HomeworkID: 7})
	require.NoError(t, err)

	_, err = signer.Verify(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_WrongSecret(t *testing.T) {
	token, err := NewSigner("one", 5*time.Minute).Issue(Claims{UserID: 42})
	require.NoError(t, err)

	_, err = NewSigner("two", 5*time.Minute).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
