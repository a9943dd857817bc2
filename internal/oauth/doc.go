// Package oauth implements the Anthropic Console OAuth2 authorization-code
// flow with PKCE and the API key provisioning that follows it.
//
// Anthropic's OAuth2 implementation requires custom handling in a few ways:
//   - Token exchange and refresh use JSON-encoded requests (OAuth2 typically uses form-encoding)
//   - A successful login provisions a durable API key via a separate
//     bearer-authorized endpoint rather than using the access token directly
//
// # Flow
//
// Flow drives the browser-facing handshake on top of a session store:
//
//	flow := oauth.NewFlow(cfg, oauth.NewAuthorizer(cfg))
//	redirectURL, err := flow.Start(ctx, sess) // persists state + verifier, returns authorize URL
//	// Browser authorizes at the provider and returns with code + state.
//	err = flow.Callback(ctx, sess, code, state, errParam)
//
// The handshake values are consumed exactly once: after the first callback
// (successful or not) a duplicate callback finds no verifier and fails closed.
//
// # Authorizer
//
// Authorizer holds the protocol legwork: authorization URL building, the
// code-for-token exchange, API key creation, and refresh. Refresh is a
// collaborator capability only; the callback flow never invokes it.
package oauth
