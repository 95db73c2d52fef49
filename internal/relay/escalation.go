// ABOUTME: Escalation orchestrator that hands a conversation to a live agent.
// ABOUTME: Creates the session, replays the transcript, triggers handoff, confirms.

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tandemlab/handoff-gateway/internal/activity"
	"github.com/tandemlab/handoff-gateway/internal/omnichannel"
	"github.com/tandemlab/handoff-gateway/internal/store"
)

// ConfirmationText is sent back to the customer once the handoff is through.
const ConfirmationText = "You are being connected to a live agent. Please hold on."

// EscalationState tracks how far an escalation run has progressed.
type EscalationState int

const (
	StateIdle EscalationState = iota
	StateSessionRequested
	StateSessionCreated
	StateTranscriptSent
	StateHandoffTriggered
	StateConfirmed
)

func (s EscalationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSessionRequested:
		return "session_requested"
	case StateSessionCreated:
		return "session_created"
	case StateTranscriptSent:
		return "transcript_sent"
	case StateHandoffTriggered:
		return "handoff_triggered"
	case StateConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// AgentPlatform is what the escalator needs from the agent-platform adapter.
type AgentPlatform interface {
	CreateSession(ctx context.Context, customerID, customerName string, sctx omnichannel.SessionContext) (string, error)
	SendTranscriptEntry(ctx context.Context, sessionID, text, source string, timestamp time.Time) error
	TriggerHandoff(ctx context.Context, sessionID, reason string) error
}

// Escalator runs the handoff sequence when a conversation escalates to a
// live agent. Session creation and handoff trigger are fatal on failure;
// transcript replay tolerates per-entry failures and the customer-facing
// confirmation is best effort.
type Escalator struct {
	transcripts *store.TranscriptStore
	maps        *store.ConversationMapStore
	platform    AgentPlatform
	channel     ChannelClient
	channelName string
	logger      *slog.Logger

	mu        sync.Mutex
	escalated map[string]string // conversation id -> last session id
}

// NewEscalator creates an Escalator. channelName identifies the customer
// channel in the session context sent to the agent platform.
func NewEscalator(transcripts *store.TranscriptStore, maps *store.ConversationMapStore, platform AgentPlatform, channel ChannelClient, channelName string, logger *slog.Logger) *Escalator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Escalator{
		transcripts: transcripts,
		maps:        maps,
		platform:    platform,
		channel:     channel,
		channelName: channelName,
		logger:      logger.With("component", "escalator"),
		escalated:   make(map[string]string),
	}
}

// Escalate hands the activity's conversation to a live agent and returns the
// new agent-platform session id. A repeat escalation of the same conversation
// opens a fresh session; the previous map entry for it becomes inert.
func (e *Escalator) Escalate(ctx context.Context, act *activity.Activity) (string, error) {
	conversationID := act.Conversation.ID
	log := e.logger.With("conversation_id", conversationID)

	e.mu.Lock()
	if prior, ok := e.escalated[conversationID]; ok {
		log.Warn("conversation escalating again, opening fresh session", "prior_session_id", prior)
	}
	e.mu.Unlock()

	state := StateSessionRequested
	log.Info("escalation started", "state", state.String(), "customer_id", act.From.ID)

	sessionID, err := e.platform.CreateSession(ctx, act.From.ID, act.From.Name, omnichannel.SessionContext{
		ExternalConversationID: conversationID,
		ExternalChannel:        e.channelName,
	})
	if err != nil {
		return "", fmt.Errorf("creating agent session: %w", err)
	}
	state = StateSessionCreated
	log = log.With("session_id", sessionID)
	log.Info("agent session created", "state", state.String())

	// The reverse route must exist before any agent could conceivably
	// reply, so the map is saved before transcript replay begins.
	e.maps.Save(store.ConversationMap{
		AgentSessionID:        sessionID,
		ChannelConversationID: conversationID,
		CustomerUserID:        act.From.ID,
	})

	e.replayTranscript(ctx, sessionID, conversationID, log)
	state = StateTranscriptSent
	log.Info("transcript replayed", "state", state.String())

	if err := e.platform.TriggerHandoff(ctx, sessionID, ""); err != nil {
		return "", fmt.Errorf("triggering handoff: %w", err)
	}
	state = StateHandoffTriggered
	log.Info("handoff triggered", "state", state.String())

	e.confirm(ctx, conversationID, log)
	state = StateConfirmed
	log.Info("escalation complete", "state", state.String())

	e.mu.Lock()
	e.escalated[conversationID] = sessionID
	e.mu.Unlock()

	return sessionID, nil
}

// replayTranscript pushes the conversation history to the agent platform so
// the agent sees context before picking up. Entries without content are
// skipped, and a failure on one entry never aborts the rest.
func (e *Escalator) replayTranscript(ctx context.Context, sessionID, conversationID string, log *slog.Logger) {
	entries := e.transcripts.Get(conversationID)
	sent := 0
	for _, entry := range entries {
		if entry.Text == "" && len(entry.Attachments) == 0 {
			continue
		}
		source := omnichannel.SourceCustomer
		if entry.Sender == activity.SenderBot {
			source = omnichannel.SourceBot
		}
		if err := e.platform.SendTranscriptEntry(ctx, sessionID, entry.Text, source, entry.Timestamp); err != nil {
			log.Warn("transcript entry not delivered", "source", source, "error", err)
			continue
		}
		sent++
	}
	log.Debug("transcript replay finished", "entries", len(entries), "sent", sent)
}

// confirm tells the customer the handoff went through. The handoff already
// succeeded at this point, so a delivery failure is only logged.
func (e *Escalator) confirm(ctx context.Context, conversationID string, log *slog.Logger) {
	e.transcripts.Append(conversationID, store.Entry{
		Sender: activity.SenderBot,
		Text:   ConfirmationText,
	})
	if err := e.channel.SendToConversation(ctx, conversationID, ConfirmationText, BotAccount()); err != nil {
		log.Error("confirmation delivery failed", "error", err)
	}
}
