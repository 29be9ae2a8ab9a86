package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "Astrotux-Go/0.1.0"

type ntfySink struct {
	endpoint string
	title    string
	client   *http.Client
}

// NewNtfySink publishes messages to an ntfy topic URL. title is sent as the
// notification title; an empty title falls back to "Astrotux". A
// non-positive timeout uses 10 seconds.
func NewNtfySink(topic, title string, timeout time.Duration) Sink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Astrotux"
	}
	return &ntfySink{
		endpoint: strings.TrimSpace(topic),
		title:    title,
		client:   &http.Client{Timeout: timeout},
	}
}

func (n *ntfySink) Deliver(ctx context.Context, kind EventKind, message string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", n.title)
	req.Header.Set("Tags", strings.Join(ntfyTags(kind), ","))
	if priority := ntfyPriority(kind); priority != "" {
		req.Header.Set("Priority", priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func ntfyTags(kind EventKind) []string {
	tags := []string{"astrotux", string(kind)}
	switch kind {
	case EventCrash:
		tags = append(tags, "alert")
	case EventPlayerJoin, EventPlayerLeave:
		tags = append(tags, "player")
	}
	return tags
}

func ntfyPriority(kind EventKind) string {
	switch kind {
	case EventCrash:
		return "high"
	case EventMessage, EventCommand:
		return "low"
	default:
		return ""
	}
}
