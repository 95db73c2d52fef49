// Package config handles configuration loading for handoff-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	directline:
//	  secret: "${DIRECTLINE_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Inbound API auth (optional; unauthenticated when omitted):
//
//	auth:
//	  jwt_secret: "${HANDOFF_JWT_SECRET}"
//
// Channel transport:
//
//	directline:
//	  secret: "${DIRECTLINE_SECRET}"
//	  base_url: "https://directline.botframework.com/v3/directline"
//	  default_locale: "en-US"
//	  timeout: "15s"
//
// External bot:
//
//	externalbot:
//	  base_url: "https://bot.example.com/api/messages"
//	  timeout: "15s"
//
// Agent platform:
//
//	omnichannel:
//	  org_url: "https://org.example.com"
//	  token_url: "https://login.example.com/tenant/oauth2/v2.0/token"
//	  client_id: "${OC_CLIENT_ID}"
//	  client_secret: "${OC_CLIENT_SECRET}"
//	  channel_id: "external-relay"
//	  language: "en-US"
//	  timeout: "15s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Duration Parsing
//
// Timeout values use Go's time.ParseDuration syntax ("15s", "1m30s").
// Missing timeouts fall back to DefaultRemoteTimeout.
package config
