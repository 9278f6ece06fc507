// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))

	ok, err := VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("Correct horse battery", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestVerifyPasswordEmptyHash(t *testing.T) {
	_, err := VerifyPassword("anything", "")
	assert.ErrorIs(t, err, ErrNoPassword)

	ok, rehash, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehash)
}

func TestVerifyPasswordWithRehashUpgradesOldParams(t *testing.T) {
	old := argonHash{memory: 32 * 1024, time: 2, threads: 2, salt: []byte("0123456789abcdef")}
	old.key = argon2.IDKey([]byte("pw-for-upgrade"), old.salt, old.time, old.memory, old.threads, argonKeyLen)

	ok, rehash, err := VerifyPasswordWithRehash("pw-for-upgrade", old.encode())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, rehash)

	ok, again, err := VerifyPasswordWithRehash("pw-for-upgrade", rehash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, again)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	_, err := VerifyPassword("pw", "$argon2id$garbage")
	assert.Error(t, err)
}

func TestHashTokenIsStable(t *testing.T) {
	token, err := GenerateRefreshToken()
	require.NoError(t, err)

	assert.Equal(t, HashToken(token), HashToken(token))
	assert.Len(t, HashToken(token), 64)
	assert.NotEqual(t, HashToken(token), HashToken(token+"x"))
}
