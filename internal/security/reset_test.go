// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/verifier-tui/internal/clock"
)

type recordingSender struct {
	sent []string
	err  error
}

func (r *recordingSender) SendReset(_ context.Context, username string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, username)
	return nil
}

func TestResetNotifier_ThrottlesPerUser(t *testing.T) {
	clk := clock.NewFake(epoch)
	sender := &recordingSender{}
	n := NewResetNotifier(sender, clk, 10*time.Minute, nil)
	ctx := context.Background()

	sent, err := n.Notify(ctx, "a")
	require.NoError(t, err)
	assert.True(t, sent)

	sent, _ = n.Notify(ctx, "a")
	assert.False(t, sent)

	sent, _ = n.Notify(ctx, "b")
	assert.True(t, sent, "other users are not affected")

	clk.Advance(10 * time.Minute)
	sent, _ = n.Notify(ctx, "a")
	assert.True(t, sent)

	assert.Equal(t, []string{"a", "b", "a"}, sender.sent)
}

func TestResetNotifier_SenderError(t *testing.T) {
	boom := errors.New("smtp down")
	n := NewResetNotifier(&recordingSender{err: boom}, clock.NewFake(epoch), time.Minute, nil)

	sent, err := n.Notify(context.Background(), "a")
	assert.False(t, sent)
	assert.ErrorIs(t, err, boom)
}
