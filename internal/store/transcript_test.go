// ABOUTME: Tests for the in-memory transcript store.
// ABOUTME: Covers per-key ordering, lazy creation, snapshot isolation, and concurrency.

package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tandemlab/handoff-gateway/internal/activity"
)

func TestTranscriptStore_AppendPreservesOrder(t *testing.T) {
	s := NewTranscriptStore()

	for i := 0; i < 50; i++ {
		s.Append("c1", Entry{Sender: activity.SenderCustomer, Text: fmt.Sprintf("msg-%d", i)})
	}

	entries := s.Get("c1")
	require.Len(t, entries, 50)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), e.Text)
		assert.Equal(t, "c1", e.ConversationID)
		assert.False(t, e.Timestamp.IsZero(), "timestamp must be stamped at ingestion")
	}
}

func TestTranscriptStore_GetUnknownConversation(t *testing.T) {
	s := NewTranscriptStore()

	entries := s.Get("never-seen")
	require.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.Equal(t, 0, s.Len("never-seen"))
}

func TestTranscriptStore_TimestampOverwritesInbound(t *testing.T) {
	s := NewTranscriptStore()

	s.Append("c1", Entry{Sender: activity.SenderCustomer, Text: "hi"})

	got := s.Get("c1")[0]
	assert.False(t, got.Timestamp.IsZero())
}

func TestTranscriptStore_GetReturnsSnapshot(t *testing.T) {
	s := NewTranscriptStore()
	s.Append("c1", Entry{Sender: activity.SenderCustomer, Text: "hi"})

	snapshot := s.Get("c1")
	snapshot[0].Text = "mutated"
	s.Append("c1", Entry{Sender: activity.SenderBot, Text: "hello"})

	entries := s.Get("c1")
	require.Len(t, entries, 2)
	assert.Equal(t, "hi", entries[0].Text, "caller mutation must not reach the store")
	assert.Len(t, snapshot, 1, "snapshot must not grow with later appends")
}

func TestTranscriptStore_IsolatesConversations(t *testing.T) {
	s := NewTranscriptStore()

	s.Append("c1", Entry{Sender: activity.SenderCustomer, Text: "for c1"})
	s.Append("c2", Entry{Sender: activity.SenderCustomer, Text: "for c2"})

	require.Len(t, s.Get("c1"), 1)
	require.Len(t, s.Get("c2"), 1)
	assert.Equal(t, "for c1", s.Get("c1")[0].Text)
	assert.Equal(t, "for c2", s.Get("c2")[0].Text)
}

func TestTranscriptStore_ConcurrentAppends(t *testing.T) {
	s := NewTranscriptStore()

	const writers = 8
	const perWriter = 100

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			conv := fmt.Sprintf("conv-%d", w%2)
			for i := 0; i < perWriter; i++ {
				s.Append(conv, Entry{Sender: activity.SenderCustomer, Text: "x"})
				s.Get(conv)
			}
		}(w)
	}
	wg.Wait()

	total := s.Len("conv-0") + s.Len("conv-1")
	assert.Equal(t, writers*perWriter, total, "no appends may be lost under contention")
}
