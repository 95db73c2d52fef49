// Package directline is the adapter for the customer-facing channel transport.
//
// It covers the two operations the relay needs: starting a conversation
// (which issues the channel-side conversation id and token) and posting a
// message activity into an existing conversation. Token refresh, websocket
// streams, and the rest of the channel surface are the caller's concern.
package directline
