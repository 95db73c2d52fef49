// ABOUTME: HTTP client for the downstream external bot that generates customer replies.
// ABOUTME: Thin adapter: one endpoint, JSON in, JSON out, non-2xx is an error.

package extbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tandemlab/handoff-gateway/internal/config"
)

// ErrBadStatus indicates the bot endpoint answered with a non-success status.
var ErrBadStatus = errors.New("external bot returned non-success status")

// Client talks to the external message-processing bot.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a Client from configuration.
func New(cfg config.ExternalBotConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With("component", "extbot"),
	}
}

// request is the wire format the bot accepts. Source distinguishes customer
// turns from live-agent text relayed back through the bot channel.
type request struct {
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	Source         string `json:"source,omitempty"`
}

// response is the bot's reply envelope.
type response struct {
	Reply string `json:"reply"`
}

// Send forwards a customer message and returns the bot's reply text.
// A transport failure, timeout, or non-2xx status is returned as an error;
// callers decide how to degrade.
func (c *Client) Send(ctx context.Context, text, userID, conversationID string) (string, error) {
	resp, err := c.post(ctx, request{
		Message:        text,
		UserID:         userID,
		ConversationID: conversationID,
	})
	if err != nil {
		return "", err
	}
	return resp.Reply, nil
}

// SendAgentMessage relays live-agent text to the customer through the bot
// channel. The bot treats source "agent" as passthrough delivery.
func (c *Client) SendAgentMessage(ctx context.Context, conversationID, userID, text string) error {
	_, err := c.post(ctx, request{
		Message:        text,
		UserID:         userID,
		ConversationID: conversationID,
		Source:         "agent",
	})
	return err
}

func (c *Client) post(ctx context.Context, payload request) (*response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding bot request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating bot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling external bot: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading bot response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		c.logger.Error("external bot call failed",
			"status", httpResp.StatusCode,
			"conversation_id", payload.ConversationID,
			"body", string(respBody),
		)
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, httpResp.StatusCode)
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding bot response: %w", err)
	}

	c.logger.Debug("external bot call completed",
		"conversation_id", payload.ConversationID,
		"duration", time.Since(start),
	)
	return &resp, nil
}
