// Package extbot is the adapter for the downstream external bot.
//
// The bot exposes a single JSON endpoint. Customer turns are forwarded as
// {message, userId, conversationId} and answered with {reply}; live-agent
// text is relayed through the same endpoint with source "agent" and no reply
// is expected. Failures are surfaced as errors and never retried here; the
// router substitutes fallback text, keeping degradation policy out of the
// adapter.
package extbot
