// Package relay contains the conversational core of the gateway: the router
// that classifies and dispatches inbound activities, and the escalator that
// hands a conversation over to a live agent.
//
// Routing has three paths. Customer messages go to the external bot and the
// reply (or a fixed fallback when the bot fails or answers blank) is relayed
// back through the channel. Agent messages arrive keyed by agent session id
// and are forwarded to the customer via the reverse route saved at
// escalation time. Escalation events run the handoff sequence: create an
// agent session, save the reverse route, replay the transcript, trigger the
// handoff, confirm to the customer.
//
// Everything with content that passes through the relay lands in the
// transcript store, inbound before routing and outbound as it is generated,
// so escalation replays a complete two-sided history.
package relay
