// ABOUTME: In-memory append-only transcript store keyed by conversation id.
// ABOUTME: Appends are linearizable per key; reads return an ordered snapshot copy.

package store

import (
	"sync"
	"time"

	"github.com/tandemlab/handoff-gateway/internal/activity"
)

// Entry is one recorded transcript line. Entries are immutable once stored.
type Entry struct {
	ConversationID string
	Sender         activity.Sender
	Text           string
	Attachments    []activity.Attachment
	Timestamp      time.Time
}

// transcript is the per-conversation record.
type transcript struct {
	conversationID string
	created        time.Time
	entries        []Entry
}

// TranscriptStore holds the full relay-observed history of every conversation
// seen during the process lifetime. There is no eviction or size cap; growth
// is bounded only by process restart (a documented operational constraint).
type TranscriptStore struct {
	mu      sync.RWMutex
	records map[string]*transcript
}

// NewTranscriptStore creates an empty TranscriptStore.
func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{
		records: make(map[string]*transcript),
	}
}

// Append records an entry under the given conversation id, creating the
// transcript on first use. The stored timestamp is set here, at ingestion,
// regardless of what the entry carried. Safe for concurrent use; appends on
// the same conversation are observed in call order.
func (s *TranscriptStore) Append(conversationID string, entry Entry) {
	now := time.Now().UTC()
	entry.ConversationID = conversationID
	entry.Timestamp = now

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[conversationID]
	if !ok {
		rec = &transcript{conversationID: conversationID, created: now}
		s.records[conversationID] = rec
	}
	rec.entries = append(rec.entries, entry)
}

// Get returns a copy of the ordered transcript for the conversation, or an
// empty slice if the conversation has never been seen.
func (s *TranscriptStore) Get(conversationID string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[conversationID]
	if !ok {
		return []Entry{}
	}

	out := make([]Entry, len(rec.entries))
	copy(out, rec.entries)
	return out
}

// Len returns the number of entries stored for the conversation.
func (s *TranscriptStore) Len(conversationID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[conversationID]
	if !ok {
		return 0
	}
	return len(rec.entries)
}
