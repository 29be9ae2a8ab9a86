// Package textutil provides small text helpers for CLI rendering: turning
// identifiers into display labels and shortening long messages for tables.
package textutil
