package apikey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA256Hasher_Deterministic(t *testing.T) {
	hasher := NewSHA256Hasher("salt")

	first := hasher.Hash("afi_secret")
	second := hasher.Hash("afi_secret")

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestSHA256Hasher_SaltChangesFingerprint(t *testing.T) {
	plain := NewSHA256Hasher("")
	salted := NewSHA256Hasher("pepper")

	assert.NotEqual(t, plain.Hash("afi_secret"), salted.Hash("afi_secret"))
}

func TestSHA256Hasher_DistinctInputs(t *testing.T) {
	hasher := NewSHA256Hasher("salt")

	assert.NotEqual(t, hasher.Hash("afi_one"), hasher.Hash("afi_two"))
}

func TestGenerateCredential(t *testing.T) {
	credential, suffix, err := generateCredential()

	assert.NoError(t, err)
	assert.Contains(t, credential, credentialPrefix)
	assert.Len(t, suffix, suffixLen)
	assert.Equal(t, credential[len(credential)-suffixLen:], suffix)
}

func TestGenerateKeyID(t *testing.T) {
	keyID, err := generateKeyID()

	assert.NoError(t, err)
	assert.Contains(t, keyID, keyIDPrefix)
}
