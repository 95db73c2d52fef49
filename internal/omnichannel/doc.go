// Package omnichannel is the adapter for the human-agent handoff platform.
//
// It covers the three calls the escalation flow needs: registering a session
// for a customer, replaying stored transcript entries into that session, and
// triggering the live-agent handoff. Authentication uses the OAuth2
// client-credentials grant against a separate token endpoint; the token is
// cached and refreshed on expiry rather than re-fetched per call.
//
// Error policy is the caller's: per-entry transcript failures are returned
// individually so the orchestrator can skip and continue, while session
// creation and handoff failures abort the escalation.
package omnichannel
