package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

// stateEntropyBytes is the amount of randomness behind a state token before encoding.
const stateEntropyBytes = 32

// PKCEParams holds a PKCE verifier/challenge pair for one handshake.
// Challenge is always RawURLEncoding(SHA-256(Verifier)); the verifier is sent
// to the authorization server only in the final token exchange, the challenge
// only in the authorization redirect.
type PKCEParams struct {
	Verifier  string
	Challenge string
}

// GeneratePKCEParams returns a fresh PKCE pair. The verifier is derived from
// 32 bytes of CSPRNG output, URL-safe base64 without padding (43 characters).
func GeneratePKCEParams() PKCEParams {
	verifier := oauth2.GenerateVerifier()
	return PKCEParams{
		Verifier:  verifier,
		Challenge: oauth2.S256ChallengeFromVerifier(verifier),
	}
}

// GenerateState returns a URL-safe CSRF token from 32 bytes of CSPRNG output.
// The token is round-tripped through the authorization redirect; it is a
// nonce, not a secret key.
func GenerateState() (string, error) {
	buf := make([]byte, stateEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random state bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
