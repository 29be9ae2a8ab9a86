// Package agent assembles the notification pipeline described by a
// config.Config: one handler per [[handlers]] entry, wrapped in a queued
// handler when requested, registered on a shared Manager in file order.
//
// The Agent owns everything it opened (history database, queued workers) and
// releases it in Close, which first lets queued handlers flush.
package agent
