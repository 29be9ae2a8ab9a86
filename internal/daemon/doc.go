// Package daemon coordinates the long-running astrotux agent.
//
// It wires the notification agent, the optional HTTP event API, and the
// console reader into one lifecycle with flock-based locking to prevent
// multiple instances sharing a log directory. Start announces the agent with
// a start event; Stop announces shutdown, stops intake, and lets queued
// handlers flush before releasing the lock.
package daemon
