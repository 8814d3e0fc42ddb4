// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryDirectory keeps accounts in a map. Changes are lost on exit.
type MemoryDirectory struct {
	mu       sync.RWMutex
	accounts map[string]Account
	now      func() time.Time
}

// NewMemory returns an empty in-memory directory.
func NewMemory() *MemoryDirectory {
	return &MemoryDirectory{
		accounts: make(map[string]Account),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryDirectory) Lookup(ctx context.Context, username string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[username]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

func (m *MemoryDirectory) List(ctx context.Context) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *MemoryDirectory) Insert(ctx context.Context, acct Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[acct.Username]; ok {
		return ErrAccountExists
	}
	now := m.now()
	acct.CreatedAt, acct.UpdatedAt = now, now
	m.accounts[acct.Username] = acct
	return nil
}

func (m *MemoryDirectory) ClaimPassword(ctx context.Context, username, hash string) error {
	return m.update(ctx, username, func(a *Account) error {
		if a.HasPassword() {
			return ErrPasswordAlreadySet
		}
		a.PasswordHash = hash
		return nil
	})
}

func (m *MemoryDirectory) UpdatePassword(ctx context.Context, username, hash string) error {
	return m.update(ctx, username, func(a *Account) error {
		a.PasswordHash = hash
		return nil
	})
}

func (m *MemoryDirectory) SetTOTPSecret(ctx context.Context, username, secret string) error {
	return m.update(ctx, username, func(a *Account) error {
		a.TOTPSecret = secret
		return nil
	})
}

// Close is a no-op.
func (m *MemoryDirectory) Close() error { return nil }

func (m *MemoryDirectory) update(ctx context.Context, username string, fn func(*Account) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[username]
	if !ok {
		return ErrAccountNotFound
	}
	if err := fn(&acct); err != nil {
		return err
	}
	acct.UpdatedAt = m.now()
	m.accounts[username] = acct
	return nil
}
