package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateJWT("ops", time.Hour, secret)
	require.NoError(t, err)

	subject, err := ValidateToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "ops", subject)
}

func TestGenerateRequiresSubject(t *testing.T) {
	_, err := GenerateJWT("", time.Hour, []byte("test-secret"))
	require.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT("ops", time.Hour, []byte("right"))
	require.NoError(t, err)

	_, err = ValidateToken(token, []byte("wrong"))
	require.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateJWT("ops", -time.Minute, secret)
	require.NoError(t, err)

	_, err = ValidateToken(token, secret)
	require.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not-a-token", []byte("test-secret"))
	require.Error(t, err)
}
