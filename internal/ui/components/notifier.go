// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/jeranaias/verifier-tui/internal/clock"
	"github.com/jeranaias/verifier-tui/internal/ui/styles"
	"github.com/jeranaias/verifier-tui/internal/util"
)

// =============================================================================
// NOTIFICATION TYPES
// =============================================================================

// NotificationKind selects the color and indicator of a notification.
type NotificationKind int

const (
	KindInfo NotificationKind = iota
	KindSuccess
	KindWarning
	KindError
)

func (k NotificationKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return "info"
	}
}

// DefaultNotificationDuration is how long a notification stays unless told
// otherwise.
const DefaultNotificationDuration = 5 * time.Second

// maxNotifications caps the visible stack; the oldest are dropped first.
const maxNotifications = 5

// Notification is one message in the stack.
type Notification struct {
	ID        string
	Message   string
	Kind      NotificationKind
	CreatedAt time.Time
	// Duration is zero for notifications that stay until removed.
	Duration time.Duration
}

// =============================================================================
// NOTIFIER
// =============================================================================

// Notifier holds the notification stack. Auto-dismissal is scheduled on the
// clock, so with a dispatched clock removals happen on the UI loop.
type Notifier struct {
	clock  clock.Clock
	mu     sync.Mutex
	items  []Notification
	timers map[string]clock.Timer
}

// NewNotifier creates an empty notifier.
func NewNotifier(clk clock.Clock) *Notifier {
	if clk == nil {
		clk = clock.Real()
	}
	return &Notifier{clock: clk, timers: make(map[string]clock.Timer)}
}

// Add shows message for DefaultNotificationDuration and returns its id.
func (n *Notifier) Add(message string, kind NotificationKind) string {
	return n.AddFor(message, kind, DefaultNotificationDuration)
}

// AddFor shows message for d. A zero d keeps it until Remove.
func (n *Notifier) AddFor(message string, kind NotificationKind, d time.Duration) string {
	if d < 0 {
		d = DefaultNotificationDuration
	}
	item := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: n.clock.Now(),
		Duration:  d,
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, item)
	for len(n.items) > maxNotifications {
		n.dropLocked(n.items[0].ID)
	}
	if d > 0 {
		id := item.ID
		n.timers[id] = n.clock.AfterFunc(d, func() { n.Remove(id) })
	}
	return item.ID
}

// Remove dismisses a notification. Unknown ids are ignored.
func (n *Notifier) Remove(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dropLocked(id)
}

func (n *Notifier) dropLocked(id string) {
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return
		}
	}
}

// Dismiss removes the newest notification and reports whether there was one.
func (n *Notifier) Dismiss() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return false
	}
	n.dropLocked(n.items[len(n.items)-1].ID)
	return true
}

// Items returns the notifications, oldest first.
func (n *Notifier) Items() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Clear removes everything.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.items = nil
}

// =============================================================================
// RENDERING
// =============================================================================

// RenderNotifications renders the stack, newest at the bottom, right
// aligned within width.
func RenderNotifications(theme *styles.Theme, items []Notification, width int) string {
	if len(items) == 0 {
		return ""
	}

	maxWidth := 48
	if width > 0 && width-4 < maxWidth {
		maxWidth = width - 4
	}
	if maxWidth < 20 {
		maxWidth = 20
	}

	rendered := make([]string, 0, len(items))
	for _, item := range items {
		rendered = append(rendered, renderNotification(theme, item, maxWidth))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)
	if width <= 0 {
		return stack
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
}

func renderNotification(theme *styles.Theme, item Notification, maxWidth int) string {
	var style lipgloss.Style
	var icon string
	switch item.Kind {
	case KindSuccess:
		style, icon = theme.ToastSuccess, styles.StatusIndicators.Success
	case KindWarning:
		style, icon = theme.ToastWarning, styles.StatusIndicators.Warning
	case KindError:
		style, icon = theme.ToastError, styles.StatusIndicators.Error
	default:
		style, icon = theme.ToastInfo, styles.StatusIndicators.Info
	}

	// border (2) + padding (2)
	text := util.Truncate(icon+" "+item.Message, maxWidth-4)
	return style.Render(text)
}
