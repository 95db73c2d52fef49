// ABOUTME: HTTP client for the omnichannel agent platform (session, transcript, handoff).
// ABOUTME: Authenticates via OAuth2 client credentials with an expiry-aware cached token.

package omnichannel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tandemlab/handoff-gateway/internal/config"
)

// Transcript entry sources accepted by the platform. Escalation transcripts
// predate agent involvement, so "agent" is never sent.
const (
	SourceCustomer = "customer"
	SourceBot      = "bot"
)

// DefaultHandoffReason is used when the caller supplies no reason.
const DefaultHandoffReason = "escalated from external bot"

// Client errors
var (
	// ErrBadStatus indicates the platform answered with a non-success status.
	ErrBadStatus = errors.New("omnichannel returned non-success status")

	// ErrNoSessionID indicates session registration succeeded but returned no id.
	ErrNoSessionID = errors.New("omnichannel returned no session id")
)

// Client talks to the agent platform's REST surface. The underlying HTTP
// client injects a bearer token obtained via the client-credentials grant;
// the token source caches tokens and refreshes them only on expiry.
type Client struct {
	orgURL    string
	channelID string
	language  string
	http      *http.Client
	logger    *slog.Logger
}

// New creates a Client from configuration.
func New(cfg config.OmnichannelConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{strings.TrimSuffix(cfg.OrgURL, "/") + "/.default"},
	}

	// Token fetches go through a client with the same timeout as API calls.
	base := &http.Client{Timeout: cfg.Timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	httpClient := creds.Client(ctx)
	httpClient.Timeout = cfg.Timeout

	return &Client{
		orgURL:    strings.TrimSuffix(cfg.OrgURL, "/"),
		channelID: cfg.ChannelID,
		language:  cfg.Language,
		http:      httpClient,
		logger:    logger.With("component", "omnichannel"),
	}
}

// SessionContext carries the escalation context attached to a new session.
type SessionContext struct {
	ExternalConversationID string `json:"externalConversationId"`
	ExternalChannel        string `json:"externalChannel"`
}

// CreateSession registers a new agent-platform session for the customer and
// returns its session id. A missing id in a success response is an error:
// nothing downstream can proceed without it.
func (c *Client) CreateSession(ctx context.Context, customerID, customerName string, sessionCtx SessionContext) (string, error) {
	if customerID == "" {
		customerID = "anonymous"
	}
	if customerName == "" {
		customerName = "Customer"
	}

	payload := map[string]any{
		"channelId": c.channelID,
		"language":  c.language,
		"customer": map[string]string{
			"id":          customerID,
			"displayName": customerName,
		},
		"context": sessionCtx,
	}

	respBody, err := c.post(ctx, "/oc/api/v1.0/registration", payload)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}

	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("decoding session response: %w", err)
	}
	if strings.TrimSpace(resp.SessionID) == "" {
		return "", ErrNoSessionID
	}

	c.logger.Info("session created", "session_id", resp.SessionID, "customer_id", customerID)
	return resp.SessionID, nil
}

// SendTranscriptEntry replays one stored transcript line into the session.
// Source must be SourceCustomer or SourceBot.
func (c *Client) SendTranscriptEntry(ctx context.Context, sessionID, text, source string, timestamp time.Time) error {
	payload := map[string]any{
		"sessionId": sessionID,
		"type":      "input",
		"text":      text,
		"source":    source,
		"timestamp": timestamp.UTC().Format(time.RFC3339Nano),
	}

	if _, err := c.post(ctx, "/oc/api/v1.0/messages", payload); err != nil {
		return fmt.Errorf("sending transcript entry: %w", err)
	}
	return nil
}

// TriggerHandoff asks the platform to hand the session to a live agent.
// An empty reason falls back to DefaultHandoffReason.
func (c *Client) TriggerHandoff(ctx context.Context, sessionID, reason string) error {
	if reason == "" {
		reason = DefaultHandoffReason
	}

	payload := map[string]string{
		"sessionId": sessionID,
		"reason":    reason,
	}

	if _, err := c.post(ctx, "/oc/api/v1.0/handoff", payload); err != nil {
		return fmt.Errorf("triggering handoff: %w", err)
	}

	c.logger.Info("handoff triggered", "session_id", sessionID, "reason", reason)
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.orgURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling omnichannel: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("omnichannel call failed", "path", path, "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	return respBody, nil
}
