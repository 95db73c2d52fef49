// ABOUTME: Tests for activity classification and content checks.
// ABOUTME: Covers the routing kind rules, sender detection, and HasContent.

package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		act  Activity
		want Kind
	}{
		{
			name: "customer message",
			act:  Activity{Type: TypeMessage, Text: "hi", ChannelID: "directline"},
			want: KindCustomerMessage,
		},
		{
			name: "escalation event",
			act:  Activity{Type: TypeEvent, Name: EventNameEscalate},
			want: KindEscalation,
		},
		{
			name: "escalation wins over agent channel",
			act:  Activity{Type: TypeEvent, Name: EventNameEscalate, ChannelID: "agenthub", From: Account{Role: "agent"}},
			want: KindEscalation,
		},
		{
			name: "agent message on agent channel",
			act:  Activity{Type: TypeMessage, Text: "hello", ChannelID: "agenthub", From: Account{Role: "agent"}},
			want: KindAgentMessage,
		},
		{
			name: "agent channel without agent role is a customer turn",
			act:  Activity{Type: TypeMessage, Text: "hello", ChannelID: "agenthub", From: Account{Role: "user"}},
			want: KindCustomerMessage,
		},
		{
			name: "agent role on customer channel is a customer turn",
			act:  Activity{Type: TypeMessage, Text: "hello", ChannelID: "directline", From: Account{Role: "agent"}},
			want: KindCustomerMessage,
		},
		{
			name: "unrelated event",
			act:  Activity{Type: TypeEvent, Name: "conversationUpdate"},
			want: KindIgnored,
		},
		{
			name: "typing indicator",
			act:  Activity{Type: "typing"},
			want: KindIgnored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(&tt.act, "agenthub"))
		})
	}
}

func TestSenderOf(t *testing.T) {
	tests := []struct {
		name string
		from Account
		want Sender
	}{
		{"explicit agent role", Account{ID: "a1", Role: "agent"}, SenderAgent},
		{"explicit bot role", Account{ID: "x", Role: "bot"}, SenderBot},
		{"bot id prefix", Account{ID: "bot-42"}, SenderBot},
		{"bot id prefix uppercase", Account{ID: "Bot42"}, SenderBot},
		{"plain user", Account{ID: "u1", Role: "user"}, SenderCustomer},
		{"empty account", Account{}, SenderCustomer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Activity{From: tt.from}
			assert.Equal(t, tt.want, a.SenderOf())
		})
	}
}

func TestHasContent(t *testing.T) {
	assert.True(t, (&Activity{Text: "hi"}).HasContent())
	assert.True(t, (&Activity{Attachments: []Attachment{{ContentType: "image/png"}}}).HasContent())
	assert.False(t, (&Activity{}).HasContent())
	assert.False(t, (&Activity{Text: "   "}).HasContent())
}
