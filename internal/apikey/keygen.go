package apikey

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// keyIDPrefix marks opaque key identifiers.
	keyIDPrefix = "ak_"

	// credentialPrefix marks issued plaintext credentials.
	credentialPrefix = "afi_"

	// suffixLen is how many trailing characters of the plaintext are
	// retained for display in listings.
	suffixLen = 6
)

// generateKeyID returns a new opaque key identifier.
func generateKeyID() (string, error) {
	return randomToken(keyIDPrefix, 12)
}

// generateCredential returns a new plaintext credential and its
// display suffix.
func generateCredential() (credential, suffix string, err error) {
	credential, err = randomToken(credentialPrefix, 24)
	if err != nil {
		return "", "", err
	}
	return credential, credential[len(credential)-suffixLen:], nil
}

// randomToken returns prefix plus n cryptographically random bytes in
// unpadded base64url.
func randomToken(prefix string, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
