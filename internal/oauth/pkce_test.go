package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
)

func TestGeneratePKCEParams(t *testing.T) {
	pkce := GeneratePKCEParams()

	if pkce.Verifier == "" {
		t.Fatal("verifier is empty")
	}
	if pkce.Challenge == "" {
		t.Fatal("challenge is empty")
	}

	// 32 bytes of entropy encode to 43 unpadded base64url characters.
	if len(pkce.Verifier) != 43 {
		t.Errorf("verifier length = %d, want 43", len(pkce.Verifier))
	}
	if strings.ContainsAny(pkce.Verifier, "+/=") {
		t.Errorf("verifier %q contains non-URL-safe characters", pkce.Verifier)
	}
	if strings.ContainsAny(pkce.Challenge, "+/=") {
		t.Errorf("challenge %q contains non-URL-safe characters", pkce.Challenge)
	}

	// The challenge must be the S256 transform of the verifier.
	sum := sha256.Sum256([]byte(pkce.Verifier))
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	if pkce.Challenge != want {
		t.Errorf("challenge = %q, want %q", pkce.Challenge, want)
	}
}

func TestGeneratePKCEParamsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		pkce := GeneratePKCEParams()
		if _, dup := seen[pkce.Verifier]; dup {
			t.Fatalf("verifier %q generated twice", pkce.Verifier)
		}
		seen[pkce.Verifier] = struct{}{}
	}
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState failed: %v", err)
	}

	if len(state) != 43 {
		t.Errorf("state length = %d, want 43", len(state))
	}
	if strings.ContainsAny(state, "+/=") {
		t.Errorf("state %q contains non-URL-safe characters", state)
	}
	if _, err := base64.RawURLEncoding.DecodeString(state); err != nil {
		t.Errorf("state %q is not valid base64url: %v", state, err)
	}
}

func TestGenerateStateUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("GenerateState failed: %v", err)
		}
		if _, dup := seen[state]; dup {
			t.Fatalf("state %q generated twice", state)
		}
		seen[state] = struct{}{}
	}
}
