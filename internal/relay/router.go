// ABOUTME: Message router that classifies inbound turns and dispatches them.
// ABOUTME: Customer turns go to the external bot; agent turns resolve the reverse route.

package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tandemlab/handoff-gateway/internal/activity"
	"github.com/tandemlab/handoff-gateway/internal/store"
)

// Relay bot identity stamped on every reply the relay generates.
const (
	BotID   = "relay-bot"
	BotName = "Relay Bot"
)

// FallbackReply is sent to the customer when the external bot fails or
// answers with nothing. The customer always gets some reply.
const FallbackReply = "We hit a problem reaching our assistant. Please try again in a moment."

// Defaults for inbound turns missing identity fields.
const (
	AnonymousUserID     = "anonymous"
	UnknownConversation = "no-conv"
)

// Router errors
var (
	// ErrSessionNotFound means an agent reply referenced an unknown session.
	ErrSessionNotFound = errors.New("no conversation map for agent session")

	// ErrIgnored means the activity is not something the relay acts on.
	ErrIgnored = errors.New("activity ignored")
)

// BotClient is what the router needs from the external-bot adapter.
type BotClient interface {
	Send(ctx context.Context, text, userID, conversationID string) (string, error)
	SendAgentMessage(ctx context.Context, conversationID, userID, text string) error
}

// ChannelClient is what the router needs from the channel adapter.
type ChannelClient interface {
	SendToConversation(ctx context.Context, conversationID, text string, from activity.Account) error
}

// Result describes what a processed turn produced.
type Result struct {
	Kind      activity.Kind
	Reply     string // text delivered back to the customer (customer path)
	SessionID string // agent-platform session id (escalation path)
}

// Router classifies each inbound activity and dispatches it to the external
// bot path or the agent path. Every inbound turn with content is appended to
// the transcript before any routing decision runs, and every reply the relay
// generates is appended too, so the transcript is a complete bidirectional
// record.
type Router struct {
	transcripts    *store.TranscriptStore
	maps           *store.ConversationMapStore
	bot            BotClient
	channel        ChannelClient
	escalator      *Escalator
	agentChannelID string
	logger         *slog.Logger
}

// NewRouter creates a Router. agentChannelID is the transport channel
// identifier agent-originated turns arrive on.
func NewRouter(transcripts *store.TranscriptStore, maps *store.ConversationMapStore, bot BotClient, channel ChannelClient, escalator *Escalator, agentChannelID string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		transcripts:    transcripts,
		maps:           maps,
		bot:            bot,
		channel:        channel,
		escalator:      escalator,
		agentChannelID: agentChannelID,
		logger:         logger.With("component", "router"),
	}
}

// BotAccount is the sender identity for relay-generated replies.
func BotAccount() activity.Account {
	return activity.Account{ID: BotID, Name: BotName, Role: "bot"}
}

// Process ingests one inbound activity: stamp defaults, record it, classify
// it, dispatch it. Returns ErrIgnored for activities the relay does not act
// on and ErrSessionNotFound for agent replies with no known session; both
// are local conditions with no remote calls behind them.
func (r *Router) Process(ctx context.Context, act *activity.Activity) (*Result, error) {
	if act.Conversation.ID == "" {
		act.Conversation.ID = UnknownConversation
	}

	// Record first, then act. Contentless activities (e.g. the escalation
	// event itself) are not transcript material.
	if act.HasContent() {
		r.transcripts.Append(act.Conversation.ID, store.Entry{
			Sender:      act.SenderOf(),
			Text:        act.Text,
			Attachments: act.Attachments,
		})
	}

	kind := activity.Classify(act, r.agentChannelID)
	r.logger.Debug("activity classified",
		"kind", kind.String(),
		"conversation_id", act.Conversation.ID,
		"from", act.From.ID,
	)

	switch kind {
	case activity.KindEscalation:
		sessionID, err := r.escalator.Escalate(ctx, act)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: kind, SessionID: sessionID}, nil
	case activity.KindAgentMessage:
		return r.handleAgentMessage(ctx, act)
	case activity.KindCustomerMessage:
		return r.handleCustomerMessage(ctx, act)
	default:
		return nil, ErrIgnored
	}
}

// handleCustomerMessage forwards the turn to the external bot and relays the
// reply (or the fallback) back through the channel. The reply is appended to
// the transcript as the relay bot before it goes out.
func (r *Router) handleCustomerMessage(ctx context.Context, act *activity.Activity) (*Result, error) {
	userID := act.From.ID
	if userID == "" {
		userID = AnonymousUserID
	}
	conversationID := act.Conversation.ID

	replyText, err := r.bot.Send(ctx, act.Text, userID, conversationID)
	if err != nil || strings.TrimSpace(replyText) == "" {
		if err != nil {
			r.logger.Error("external bot failed, substituting fallback",
				"conversation_id", conversationID,
				"error", err,
			)
		} else {
			r.logger.Warn("external bot returned blank reply, substituting fallback",
				"conversation_id", conversationID,
			)
		}
		replyText = FallbackReply
	}

	r.transcripts.Append(conversationID, store.Entry{
		Sender: activity.SenderBot,
		Text:   replyText,
	})

	if err := r.channel.SendToConversation(ctx, conversationID, replyText, BotAccount()); err != nil {
		// The reply is recorded and returned to the caller either way.
		r.logger.Error("channel delivery failed", "conversation_id", conversationID, "error", err)
	}

	return &Result{Kind: activity.KindCustomerMessage, Reply: replyText}, nil
}

// handleAgentMessage resolves the reverse route for a live-agent reply and
// forwards the text to the customer through the external-bot channel. A map
// miss is answered locally; no remote system is contacted.
func (r *Router) handleAgentMessage(ctx context.Context, act *activity.Activity) (*Result, error) {
	sessionID := act.Conversation.ID

	m, ok := r.maps.TryGet(sessionID)
	if !ok {
		r.logger.Warn("agent reply for unknown session", "session_id", sessionID)
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	if err := r.bot.SendAgentMessage(ctx, m.ChannelConversationID, m.CustomerUserID, act.Text); err != nil {
		return nil, fmt.Errorf("forwarding agent message: %w", err)
	}

	r.logger.Info("agent message relayed",
		"session_id", sessionID,
		"conversation_id", m.ChannelConversationID,
	)
	return &Result{Kind: activity.KindAgentMessage, SessionID: sessionID}, nil
}
