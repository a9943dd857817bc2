// Package keystore provides storage abstractions for the operator-supplied
// fallback Anthropic API key, used when a browser session has not provisioned
// its own key through the login flow.
//
// Three backends with different deployment tradeoffs:
//   - Env: Read-only environment variable access (requires external secret management)
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
package keystore

import "context"

// Store reads and writes the fallback API key.
type Store interface {
	// Read returns the stored key. Returns error if the key is missing or empty.
	Read(ctx context.Context) (string, error)

	// Write persists the key to storage. Returns error if the storage backend
	// is read-only (e.g., environment variables) or if the write fails.
	Write(ctx context.Context, key string) error
}
