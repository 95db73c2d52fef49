// Package gateway wires the relay together: in-memory stores, the three
// remote adapters (channel, external bot, agent platform), the router, and
// the HTTP API that fronts them.
//
// The API surface is small: POST /api/activities ingests one conversation
// turn and answers according to how it was routed, POST
// /api/conversations/start opens a new channel session, GET
// /api/transcripts/{id} reads back a recorded conversation, and /health plus
// /health/ready serve probes. When auth.jwt_secret is configured the /api
// routes require a JWT bearer token; the health endpoints never do.
package gateway
