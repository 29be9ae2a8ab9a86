// Package history persists delivered notifications in SQLite.
//
// A Store doubles as a notification sink: Store.Sink returns a
// notifications.Sink that records each rendered message together with the
// handler that produced it, so the CLI can list recent notifications.
package history
