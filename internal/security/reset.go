// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/verifier-tui/internal/clock"
)

// DefaultResetInterval is the minimum spacing between reset messages to
// one account.
const DefaultResetInterval = 10 * time.Minute

// ResetSender delivers password reset instructions.
type ResetSender interface {
	SendReset(ctx context.Context, username string) error
}

// LogResetSender records reset requests in the application log instead of
// sending mail.
type LogResetSender struct {
	Logger *zap.Logger
}

// SendReset logs the request.
func (s LogResetSender) SendReset(_ context.Context, username string) error {
	if s.Logger != nil {
		s.Logger.Info("password reset instructions queued", zap.String("user", MaskIdentifier(username)))
	}
	return nil
}

// ResetNotifier throttles reset delivery per account. The requester always
// sees the same answer; throttled requests are only audited.
type ResetNotifier struct {
	sender   ResetSender
	clock    clock.Clock
	interval time.Duration
	audit    *AuditLogger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewResetNotifier creates a notifier. A nil sender discards messages.
func NewResetNotifier(sender ResetSender, clk clock.Clock, interval time.Duration, audit *AuditLogger) *ResetNotifier {
	if clk == nil {
		clk = clock.Real()
	}
	if interval <= 0 {
		interval = DefaultResetInterval
	}
	return &ResetNotifier{
		sender:   sender,
		clock:    clk,
		interval: interval,
		audit:    audit,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Notify delivers reset instructions unless the account was sent one within
// the interval. It reports whether a message was actually sent.
func (n *ResetNotifier) Notify(ctx context.Context, username string) (bool, error) {
	n.mu.Lock()
	lim, ok := n.limiters[username]
	if !ok {
		lim = rate.NewLimiter(rate.Every(n.interval), 1)
		n.limiters[username] = lim
	}
	allowed := lim.AllowN(n.clock.Now(), 1)
	n.mu.Unlock()

	if !allowed {
		n.audit.LogEvent(EventPasswordResetThrottled, "", MaskIdentifier(username), false, nil)
		return false, nil
	}
	if n.sender != nil {
		if err := n.sender.SendReset(ctx, username); err != nil {
			return false, err
		}
	}
	n.audit.LogEvent(EventPasswordResetRequested, "", username, true, nil)
	return true, nil
}
