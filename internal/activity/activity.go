// ABOUTME: Activity types and sender/kind classification for inbound turns.
// ABOUTME: Decouples routing decisions from transport-specific role and channel strings.

package activity

import (
	"strings"
	"time"
)

// EventNameEscalate is the distinguished event name that triggers a handoff.
const EventNameEscalate = "escalate"

// Activity type strings as they appear on the wire.
const (
	TypeMessage = "message"
	TypeEvent   = "event"
)

// Sender identifies who produced a transcript entry.
type Sender string

const (
	SenderCustomer Sender = "customer"
	SenderBot      Sender = "bot"
	SenderAgent    Sender = "agent"
)

// Account identifies a participant on the channel.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// Conversation identifies the channel-side conversation.
type Conversation struct {
	ID string `json:"id"`
}

// Attachment is an opaque non-text payload carried by an activity.
type Attachment struct {
	ContentType string `json:"contentType,omitempty"`
	ContentURL  string `json:"contentUrl,omitempty"`
	Name        string `json:"name,omitempty"`
}

// Activity is one unit of conversation content, inbound or outbound.
// Timestamp is always overwritten at ingestion; the inbound value is not trusted.
type Activity struct {
	Type         string       `json:"type"`
	ID           string       `json:"id,omitempty"`
	Name         string       `json:"name,omitempty"`
	ChannelID    string       `json:"channelId,omitempty"`
	Conversation Conversation `json:"conversation"`
	From         Account      `json:"from"`
	Text         string       `json:"text,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`
	Timestamp    time.Time    `json:"timestamp,omitempty"`
}

// HasContent reports whether the activity carries text or attachments.
// Contentless activities are dropped from transcripts and skipped on replay.
func (a *Activity) HasContent() bool {
	return strings.TrimSpace(a.Text) != "" || len(a.Attachments) > 0
}

// SenderOf classifies the activity's originator for transcript purposes.
// An account is a bot if its role says so or its id uses the bot prefix
// convention; an account is an agent only by explicit role.
func (a *Activity) SenderOf() Sender {
	switch {
	case a.From.Role == "agent":
		return SenderAgent
	case a.From.Role == "bot", strings.HasPrefix(strings.ToLower(a.From.ID), "bot"):
		return SenderBot
	default:
		return SenderCustomer
	}
}

// Kind is the routing classification of an inbound activity.
type Kind int

const (
	// KindCustomerMessage is an ordinary customer turn bound for the external bot.
	KindCustomerMessage Kind = iota
	// KindAgentMessage is a live-agent reply arriving on the agent-platform channel.
	KindAgentMessage
	// KindEscalation is the explicit escalation signal.
	KindEscalation
	// KindIgnored is anything the relay does not act on (typing, pings, unknown events).
	KindIgnored
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindCustomerMessage:
		return "customer_message"
	case KindAgentMessage:
		return "agent_message"
	case KindEscalation:
		return "escalation"
	default:
		return "ignored"
	}
}

// Classify decides the routing kind of an inbound activity.
// agentChannelID is the transport channel identifier the agent platform
// delivers on. The rules are ordered: escalation events win, then the
// agent-channel check, then everything message-typed is a customer turn.
func Classify(a *Activity, agentChannelID string) Kind {
	if a.Type == TypeEvent && a.Name == EventNameEscalate {
		return KindEscalation
	}
	if a.ChannelID == agentChannelID && a.From.Role == "agent" {
		return KindAgentMessage
	}
	if a.Type == TypeMessage {
		return KindCustomerMessage
	}
	return KindIgnored
}
