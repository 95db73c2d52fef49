// Package store provides the relay's shared in-memory state.
//
// # Overview
//
// Two independent stores back the relay:
//
//   - TranscriptStore: append-only, per-conversation ordered log of every
//     message the relay observed, in arrival order
//   - ConversationMapStore: binding from an agent-platform session id back to
//     the originating channel conversation and customer
//
// Both are process-wide and safe for concurrent use from simultaneous
// conversation turns. Each store is guarded independently; no operation spans
// both, so there are no cross-store transactions.
//
// # Ordering
//
// TranscriptStore.Append is linearizable per conversation id: Get reflects
// every append that completed before the call, in append order. No ordering
// is defined across different conversations.
//
// ConversationMapStore.Save is visible to any TryGet that starts after Save
// returns. The escalation flow relies on this: the map is saved before
// transcript replay begins, so an agent reply arriving mid-replay can already
// resolve its reverse route.
//
// # Retention
//
// State is ephemeral per server lifetime. Nothing is evicted, pruned, or
// persisted; both stores grow monotonically until process restart. This is a
// known, accepted resource-growth constraint, not an oversight to be patched
// here.
package store
