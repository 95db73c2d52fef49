// Package activity defines the wire model for conversation turns and the
// classification rules the relay routes by.
//
// Classification is ordered: an event named "escalate" always wins, then a
// turn arriving on the agent-platform channel with role "agent" is an agent
// message, then anything message-typed is a customer turn, and the rest is
// ignored. Sender classification for transcripts is separate and looser: a
// bot is recognized by role or by the "bot" id prefix convention, an agent
// only by explicit role.
package activity
