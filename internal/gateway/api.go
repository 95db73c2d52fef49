// ABOUTME: HTTP API handlers for activity ingestion and conversation management.
// ABOUTME: Provides POST /api/activities, conversation start, and transcript reads.

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tandemlab/handoff-gateway/internal/activity"
	"github.com/tandemlab/handoff-gateway/internal/dedupe"
	"github.com/tandemlab/handoff-gateway/internal/directline"
	"github.com/tandemlab/handoff-gateway/internal/relay"
)

// ActivityResponse is the JSON response for POST /api/activities.
type ActivityResponse struct {
	Status    string `json:"status,omitempty"`
	Reply     string `json:"reply,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// StartConversationRequest is the optional JSON request body for
// POST /api/conversations/start.
type StartConversationRequest struct {
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// TranscriptEntryResponse is one transcript line in the read API.
type TranscriptEntryResponse struct {
	Sender    string `json:"sender"`
	Text      string `json:"text,omitempty"`
	Timestamp string `json:"timestamp"`
}

// TranscriptResponse is the JSON response for GET /api/transcripts/{id}.
type TranscriptResponse struct {
	ConversationID string                    `json:"conversationId"`
	Entries        []TranscriptEntryResponse `json:"entries"`
}

// ErrorResponse is the JSON error envelope for all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// handleActivities handles POST /api/activities. The body is one activity;
// the response depends on how the router dispatched it.
func (g *Gateway) handleActivities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var act activity.Activity
	if err := json.NewDecoder(r.Body).Decode(&act); err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity payload")
		return
	}
	if act.Type == "" {
		writeError(w, http.StatusBadRequest, "activity type is required")
		return
	}

	// Channel webhooks deliver at-least-once; a redelivered activity must
	// not trigger a second bot round-trip.
	if act.ID != "" && g.dedupe != nil && g.dedupe.CheckAndMark(dedupe.Key(act.Conversation.ID, act.ID)) {
		g.logger.Debug("duplicate activity dropped", "activity_id", act.ID, "conversation_id", act.Conversation.ID)
		writeJSON(w, http.StatusAccepted, ActivityResponse{Status: "duplicate"})
		return
	}

	result, err := g.router.Process(r.Context(), &act)
	if err != nil {
		switch {
		case errors.Is(err, relay.ErrIgnored):
			writeJSON(w, http.StatusAccepted, ActivityResponse{Status: "ignored"})
		case errors.Is(err, relay.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		default:
			g.logger.Error("activity processing failed", "error", err)
			writeError(w, http.StatusBadGateway, "relay failed")
		}
		return
	}

	switch result.Kind {
	case activity.KindEscalation:
		writeJSON(w, http.StatusOK, ActivityResponse{Status: "confirmed", SessionID: result.SessionID})
	case activity.KindAgentMessage:
		writeJSON(w, http.StatusOK, ActivityResponse{Status: "forwarded", SessionID: result.SessionID})
	default:
		writeJSON(w, http.StatusOK, ActivityResponse{Reply: result.Reply})
	}
}

// handleStartConversation handles POST /api/conversations/start. The body is
// optional; missing identity fields get generated defaults.
func (g *Gateway) handleStartConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req StartConversationRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	session, err := g.channel.StartConversation(r.Context(), directline.UserHint{
		UserID: req.UserID,
		Name:   req.Name,
		Locale: req.Locale,
	})
	if err != nil {
		g.logger.Error("conversation start failed", "error", err)
		writeError(w, http.StatusBadGateway, "channel unavailable")
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// handleTranscript handles GET /api/transcripts/{id}. An unknown conversation
// returns an empty entry list, consistent with the store's read contract.
func (g *Gateway) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	conversationID := strings.TrimPrefix(r.URL.Path, "/api/transcripts/")
	if conversationID == "" || strings.Contains(conversationID, "/") {
		writeError(w, http.StatusBadRequest, "conversation id required")
		return
	}

	entries := g.transcripts.Get(conversationID)
	resp := TranscriptResponse{
		ConversationID: conversationID,
		Entries:        make([]TranscriptEntryResponse, 0, len(entries)),
	}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, TranscriptEntryResponse{
			Sender:    string(entry.Sender),
			Text:      entry.Text,
			Timestamp: entry.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
