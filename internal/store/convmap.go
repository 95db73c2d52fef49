// ABOUTME: In-memory bidirectional binding between agent-platform sessions and channel conversations.
// ABOUTME: Upsert by session id; lookups signal misses explicitly instead of erroring.

package store

import (
	"sync"
	"time"
)

// ConversationMap binds one escalated conversation to its agent-platform
// session. It is created when escalation succeeds and read on every
// agent-originated turn to resolve the reverse route.
type ConversationMap struct {
	AgentSessionID        string
	ChannelConversationID string
	CustomerUserID        string
	CreatedAt             time.Time
}

// ConversationMapStore is a process-wide map of live escalations keyed by
// agent session id. A save must be visible to any lookup that starts after
// Save returns; the single mutex provides that edge.
type ConversationMapStore struct {
	mu   sync.RWMutex
	maps map[string]ConversationMap
}

// NewConversationMapStore creates an empty ConversationMapStore.
func NewConversationMapStore() *ConversationMapStore {
	return &ConversationMapStore{
		maps: make(map[string]ConversationMap),
	}
}

// Save upserts the map entry by its AgentSessionID. Saving the same session
// id twice keeps only the latest payload.
func (s *ConversationMapStore) Save(m ConversationMap) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.maps[m.AgentSessionID] = m
}

// TryGet looks up the map for an agent session id. The second return value
// is false on a miss; a miss is an expected condition, not an error.
func (s *ConversationMapStore) TryGet(agentSessionID string) (ConversationMap, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.maps[agentSessionID]
	return m, ok
}
