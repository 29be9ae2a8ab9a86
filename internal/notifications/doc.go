// Package notifications renders server events into short human-readable
// messages and fans them out to pluggable delivery sinks.
//
// A Handler filters events against its whitelist, formats the per-kind
// template with SafeFormat, and hands the result to a Sink. QueuedHandler
// performs the same filtering and formatting on the caller's goroutine but
// delivers from a dedicated worker so slow transports (ntfy, chat webhooks)
// never stall the producer. Manager broadcasts one event to every registered
// handler in registration order.
//
// Transports only need to implement Sink; everything upstream of the sink is
// shared between synchronous, queued, and test handlers.
package notifications
