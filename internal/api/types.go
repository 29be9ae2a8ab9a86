package api

import (
	"astrotux/internal/agent"
	"astrotux/internal/history"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// EventAccepted acknowledges a broadcast event.
type EventAccepted struct {
	Status string `json:"status"`
	Kind   string `json:"kind"`
}

// HandlersResponse lists registered handlers in broadcast order.
type HandlersResponse struct {
	Handlers []agent.HandlerInfo `json:"handlers"`
}

// HistoryEntry is a delivered notification in transport form.
type HistoryEntry struct {
	ID        string `json:"id"`
	Handler   string `json:"handler"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// HistoryResponse wraps recent deliveries, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// FromHistoryEntry converts a stored entry for transport.
func FromHistoryEntry(entry history.Entry) HistoryEntry {
	out := HistoryEntry{
		ID:      entry.ID,
		Handler: entry.Handler,
		Kind:    entry.Kind.String(),
		Message: entry.Message,
	}
	if !entry.CreatedAt.IsZero() {
		out.CreatedAt = entry.CreatedAt.Format(dateTimeFormat)
	}
	return out
}
