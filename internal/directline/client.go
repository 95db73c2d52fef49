// ABOUTME: HTTP client for the Direct Line-style channel transport.
// ABOUTME: Starts conversations and posts relay activities back to the customer channel.

package directline

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

	"github.com/google/uuid"

	"github.com/tandemlab/handoff-gateway/internal/activity"
	"github.com/tandemlab/handoff-gateway/internal/config"
)

// ErrBadStatus indicates the channel endpoint answered with a non-success status.
var ErrBadStatus = errors.New("channel returned non-success status")

// Client talks to the customer-facing channel transport. The channel secret
// is supplied out-of-band via configuration and sent as a bearer credential.
type Client struct {
	baseURL       string
	secret        string
	defaultLocale string
	http          *http.Client
	logger        *slog.Logger
}

// New creates a Client from configuration.
func New(cfg config.DirectLineConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		secret:        cfg.Secret,
		defaultLocale: cfg.DefaultLocale,
		http:          &http.Client{Timeout: cfg.Timeout},
		logger:        logger.With("component", "directline"),
	}
}

// UserHint carries optional caller-supplied identity for a new conversation.
// Missing fields are defaulted: a generated user id and a guest display name.
type UserHint struct {
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// Session is the channel's answer to a conversation start.
type Session struct {
	ConversationID string `json:"conversationId"`
	Token          string `json:"token"`
	ExpiresIn      int    `json:"expires_in"`
	StreamURL      string `json:"streamUrl,omitempty"`
	UserID         string `json:"-"`
}

// StartConversation requests a new channel conversation and token for the
// given user. Defaults are applied before the call so the channel always
// receives a complete identity.
func (c *Client) StartConversation(ctx context.Context, hint UserHint) (*Session, error) {
	if hint.UserID == "" {
		hint.UserID = uuid.New().String()
	}
	if hint.Name == "" {
		hint.Name = "Guest"
	}
	if hint.Locale == "" {
		hint.Locale = c.defaultLocale
	}

	payload := map[string]any{
		"user": map[string]string{
			"id":     hint.UserID,
			"name":   hint.Name,
			"locale": hint.Locale,
		},
	}

	respBody, err := c.post(ctx, c.baseURL+"/conversations", payload)
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(respBody, &session); err != nil {
		return nil, fmt.Errorf("decoding conversation response: %w", err)
	}
	if session.ConversationID == "" {
		return nil, fmt.Errorf("channel returned no conversation id")
	}
	session.UserID = hint.UserID

	c.logger.Info("conversation started",
		"conversation_id", session.ConversationID,
		"user_id", hint.UserID,
	)
	return &session, nil
}

// SendToConversation posts a message activity into an existing conversation
// on behalf of the given sender identity.
func (c *Client) SendToConversation(ctx context.Context, conversationID, text string, from activity.Account) error {
	payload := activity.Activity{
		Type:         activity.TypeMessage,
		From:         from,
		Conversation: activity.Conversation{ID: conversationID},
		Text:         text,
	}

	url := fmt.Sprintf("%s/conversations/%s/activities", c.baseURL, conversationID)
	if _, err := c.post(ctx, url, payload); err != nil {
		return err
	}

	c.logger.Debug("activity delivered to channel", "conversation_id", conversationID)
	return nil
}

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding channel request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating channel request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling channel: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading channel response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("channel call failed", "status", resp.StatusCode, "url", url, "body", string(respBody))
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	return respBody, nil
}
