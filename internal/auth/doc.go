// Package auth provides optional JWT bearer authentication for the gateway's
// HTTP API. Tokens are HS256-signed with a shared secret and carry the
// caller id in the "sub" claim. When no secret is configured the gateway
// skips the middleware entirely and the API is open.
package auth
