package alert

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/elonfeng/reciperadar/internal/store"
)

// bodyRunes caps the recipe excerpt carried in a notification.
const bodyRunes = 500

// Notification is the data sent to alert destinations.
type Notification struct {
	CaptureID   string   `json:"capture_id"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	URL         string   `json:"url"`
	Source      string   `json:"source"`
	Author      string   `json:"author"`
	Score       float64  `json:"score"`
	TopComments []string `json:"top_comments"`
	AlsoSeenAt  []string `json:"also_seen_at,omitempty"`
}

// FromCaptures builds a notification for the best capture of a group of
// reposts. The remaining captures are listed as other places it was seen.
func FromCaptures(group []store.Capture) *Notification {
	if len(group) == 0 {
		return nil
	}
	best := group[0]
	title := best.Title
	if title == "" {
		title = "New recipe"
	}
	n := &Notification{
		CaptureID:   best.ID,
		Title:       title,
		Body:        truncate(best.MainText, bodyRunes),
		URL:         best.URL,
		Source:      string(best.Source),
		Author:      best.Author,
		Score:       float64(best.Score),
		TopComments: best.TopComments,
	}
	for _, c := range group[1:] {
		if c.URL != "" && c.URL != best.URL {
			n.AlsoSeenAt = append(n.AlsoSeenAt, c.URL)
		}
	}
	return n
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return string([]rune(s)[:maxRunes]) + "..."
}
