// ABOUTME: Tests for the gateway HTTP API.
// ABOUTME: Covers activity ingestion responses, conversation start, transcripts, and auth.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tandemlab/handoff-gateway/internal/activity"
	"github.com/tandemlab/handoff-gateway/internal/auth"
	"github.com/tandemlab/handoff-gateway/internal/config"
	"github.com/tandemlab/handoff-gateway/internal/dedupe"
	"github.com/tandemlab/handoff-gateway/internal/directline"
	"github.com/tandemlab/handoff-gateway/internal/omnichannel"
	"github.com/tandemlab/handoff-gateway/internal/relay"
	"github.com/tandemlab/handoff-gateway/internal/store"
)

type fakeBot struct {
	reply   string
	sendErr error
}

func (f *fakeBot) Send(_ context.Context, _, _, _ string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return f.reply, nil
}

func (f *fakeBot) SendAgentMessage(_ context.Context, _, _, _ string) error {
	return nil
}

type fakeChannel struct {
	session  *directline.Session
	startErr error
}

func (f *fakeChannel) SendToConversation(_ context.Context, _, _ string, _ activity.Account) error {
	return nil
}

func (f *fakeChannel) StartConversation(_ context.Context, hint directline.UserHint) (*directline.Session, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.session, nil
}

type fakePlatform struct {
	sessionID string
	createErr error
}

func (f *fakePlatform) CreateSession(_ context.Context, _, _ string, _ omnichannel.SessionContext) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.sessionID, nil
}

func (f *fakePlatform) SendTranscriptEntry(_ context.Context, _, _, _ string, _ time.Time) error {
	return nil
}

func (f *fakePlatform) TriggerHandoff(_ context.Context, _, _ string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:      config.ServerConfig{HTTPAddr: "localhost:0"},
		ExternalBot: config.ExternalBotConfig{BaseURL: "http://bot.local"},
		Omnichannel: config.OmnichannelConfig{OrgURL: "https://org.local", ChannelID: "agenthub"},
	}
}

func newTestGateway(cfg *config.Config, bot relay.BotClient, channel *fakeChannel, platform relay.AgentPlatform) (*Gateway, http.Handler) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	transcripts := store.NewTranscriptStore()
	maps := store.NewConversationMapStore()
	escalator := relay.NewEscalator(transcripts, maps, platform, channel, ChannelName, logger)
	router := relay.NewRouter(transcripts, maps, bot, channel, escalator, cfg.Omnichannel.ChannelID, logger)

	gw := &Gateway{
		config:      cfg,
		transcripts: transcripts,
		maps:        maps,
		router:      router,
		channel:     channel,
		logger:      logger,
	}
	return gw, gw.buildMux()
}

func postActivity(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/activities", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleActivities_CustomerReply(t *testing.T) {
	_, handler := newTestGateway(testConfig(), &fakeBot{reply: "hello"}, &fakeChannel{}, &fakePlatform{})

	rec := postActivity(t, handler, `{"type":"message","text":"hi","from":{"id":"u1"},"conversation":{"id":"c1"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ActivityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hello", resp.Reply)
}

func TestHandleActivities_FallbackOnBotFailure(t *testing.T) {
	_, handler := newTestGateway(testConfig(), &fakeBot{sendErr: errors.New("down")}, &fakeChannel{}, &fakePlatform{})

	rec := postActivity(t, handler, `{"type":"message","text":"hi","from":{"id":"u1"},"conversation":{"id":"c1"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ActivityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, relay.FallbackReply, resp.Reply)
}

func TestHandleActivities_Escalation(t *testing.T) {
	gw, handler := newTestGateway(testConfig(), &fakeBot{}, &fakeChannel{}, &fakePlatform{sessionID: "oc-1"})

	rec := postActivity(t, handler, `{"type":"event","name":"escalate","from":{"id":"u1","name":"Ada"},"conversation":{"id":"c1"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ActivityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "confirmed", resp.Status)
	assert.Equal(t, "oc-1", resp.SessionID)

	_, ok := gw.maps.TryGet("oc-1")
	assert.True(t, ok)
}

func TestHandleActivities_EscalationFailure(t *testing.T) {
	_, handler := newTestGateway(testConfig(), &fakeBot{}, &fakeChannel{}, &fakePlatform{createErr: errors.New("rejected")})

	rec := postActivity(t, handler, `{"type":"event","name":"escalate","from":{"id":"u1"},"conversation":{"id":"c1"}}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleActivities_AgentMessage(t *testing.T) {
	gw, handler := newTestGateway(testConfig(), &fakeBot{}, &fakeChannel{}, &fakePlatform{})
	gw.maps.Save(store.ConversationMap{
		AgentSessionID:        "oc-1",
		ChannelConversationID: "c1",
		CustomerUserID:        "u1",
	})

	rec := postActivity(t, handler, `{"type":"message","text":"hello","channelId":"agenthub","from":{"id":"a1","role":"agent"},"conversation":{"id":"oc-1"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ActivityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "forwarded", resp.Status)
	assert.Equal(t, "oc-1", resp.SessionID)
}

func TestHandleActivities_UnknownAgentSession(t *testing.T) {
	_, handler := newTestGateway(testConfig(), &fakeBot{}, &fakeChannel{}, &fakePlatform{})

	rec := postActivity(t, handler, `{"type":"message","text":"hello","channelId":"agenthub","from":{"id":"a1","role":"agent"},"conversation":{"id":"oc-99"}}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "session not found", resp.Error)
}

func TestHandleActivities_DuplicateSuppressed(t *testing.T) {
	gw, handler := newTestGateway(testConfig(), &fakeBot{reply: "hello"}, &fakeChannel{}, &fakePlatform{})
	gw.dedupe = dedupe.New(time.Minute, 100)
	defer gw.dedupe.Close()

	body := `{"type":"message","id":"a1","text":"hi","from":{"id":"u1"},"conversation":{"id":"c1"}}`
	rec := postActivity(t, handler, body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postActivity(t, handler, body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp ActivityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate", resp.Status)

	// Only the first delivery reached the transcript.
	assert.Len(t, gw.transcripts.Get("c1"), 2)
}

func TestHandleActivities_Ignored(t *testing.T) {
	_, handler := newTestGateway(testConfig(), &fakeBot{}, &fakeChannel{}, &fakePlatform{})

	rec := postActivity(t, handler, `{"type":"typing","conversation":{"id":"c1"}}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHandleActivities_BadRequests(t *testing.T) {
	_, handler := newTestGateway(testConfig(), &fakeBot{}, &fakeChannel{}, &fakePlatform{})

	rec := postActivity(t, handler, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postActivity(t, handler, `{"text":"no type"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/activities", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleStartConversation(t *testing.T) {
	channel := &fakeChannel{session: &directline.Session{
		ConversationID: "c1",
		Token:          "tok",
		ExpiresIn:      1800,
		UserID:         "u1",
	}}
	_, handler := newTestGateway(testConfig(), &fakeBot{}, channel, &fakePlatform{})

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/start", strings.NewReader(`{"userId":"u1","name":"Ada"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session directline.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "c1", session.ConversationID)
	assert.Equal(t, "tok", session.Token)
}

func TestHandleStartConversation_EmptyBody(t *testing.T) {
	channel := &fakeChannel{session: &directline.Session{ConversationID: "c1"}}
	_, handler := newTestGateway(testConfig(), &fakeBot{}, channel, &fakePlatform{})

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/start", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandleStartConversation_ChannelFailure(t *testing.T) {
	channel := &fakeChannel{startErr: errors.New("channel down")}
	_, handler := newTestGateway(testConfig(), &fakeBot{}, channel, &fakePlatform{})

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/start", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleTranscript(t *testing.T) {
	gw, handler := newTestGateway(testConfig(), &fakeBot{}, &fakeChannel{}, &fakePlatform{})
	gw.transcripts.Append("c1", store.Entry{Sender: activity.SenderCustomer, Text: "hi"})
	gw.transcripts.Append("c1", store.Entry{Sender: activity.SenderBot, Text: "hello"})

	req := httptest.NewRequest(http.MethodGet, "/api/transcripts/c1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TranscriptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "c1", resp.ConversationID)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "customer", resp.Entries[0].Sender)
	assert.Equal(t, "bot", resp.Entries[1].Sender)
	assert.NotEmpty(t, resp.Entries[0].Timestamp)
}

func TestHandleTranscript_UnknownConversation(t *testing.T) {
	_, handler := newTestGateway(testConfig(), &fakeBot{}, &fakeChannel{}, &fakePlatform{})

	req := httptest.NewRequest(http.MethodGet, "/api/transcripts/nope", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TranscriptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Entries)
}

func TestHealthEndpoints(t *testing.T) {
	_, handler := newTestGateway(testConfig(), &fakeBot{}, &fakeChannel{}, &fakePlatform{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthReady_Unconfigured(t *testing.T) {
	cfg := testConfig()
	cfg.ExternalBot.BaseURL = ""
	_, handler := newTestGateway(cfg, &fakeBot{}, &fakeChannel{}, &fakePlatform{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPIAuth_Required(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "test-secret"
	_, handler := newTestGateway(cfg, &fakeBot{reply: "hello"}, &fakeChannel{}, &fakePlatform{})

	rec := postActivity(t, handler, `{"type":"message","text":"hi","conversation":{"id":"c1"}}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays open.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	token, err := auth.NewJWTVerifier([]byte("test-secret")).Generate("relay-client-1", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/activities", strings.NewReader(`{"type":"message","text":"hi","conversation":{"id":"c1"}}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
