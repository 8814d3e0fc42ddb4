// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"errors"
	"fmt"

	"github.com/jeranaias/verifier-tui/internal/directory"
	"github.com/jeranaias/verifier-tui/internal/storage"
)

// Persisted identity keys.
const (
	KeyIsAuthenticated = "verifier_isAuthenticated"
	KeyUserName        = "verifier_userName"
	KeyUserRole        = "verifier_userRole"
)

// IdentityKeys lists every key the vault writes.
var IdentityKeys = []string{KeyIsAuthenticated, KeyUserName, KeyUserRole}

// Identity is the signed-in user as seen by the rest of the application.
type Identity struct {
	Authenticated bool
	Username      string
	Role          directory.Role
	Scope         storage.Scope
}

// IdentityVault persists an Identity into one of two scopes.
type IdentityVault struct {
	remember storage.Store
	session  storage.Store
}

// NewIdentityVault creates a vault over the remember and session scopes.
func NewIdentityVault(remember, session storage.Store) *IdentityVault {
	return &IdentityVault{remember: remember, session: session}
}

func (v *IdentityVault) store(scope storage.Scope) storage.Store {
	if scope == storage.ScopeRemember {
		return v.remember
	}
	return v.session
}

// Save writes id to its scope and erases identity keys from the other one.
func (v *IdentityVault) Save(id Identity) error {
	other := storage.ScopeRemember
	if id.Scope == storage.ScopeRemember {
		other = storage.ScopeSession
	}
	if err := v.store(other).Delete(IdentityKeys...); err != nil && !errors.Is(err, storage.ErrTampered) {
		return fmt.Errorf("clear %s scope: %w", other, err)
	}
	err := v.store(id.Scope).SetAll(map[string]string{
		KeyIsAuthenticated: "true",
		KeyUserName:        id.Username,
		KeyUserRole:        string(id.Role),
	})
	if err != nil {
		return fmt.Errorf("persist identity to %s scope: %w", id.Scope, err)
	}
	return nil
}

// Load returns the persisted identity, checking the remember scope first.
// A scope without the authenticated flag, or whose role is unknown, yields
// nothing. ErrTampered is returned when a scope fails verification and no
// other scope holds an identity.
func (v *IdentityVault) Load() (Identity, error) {
	var firstErr error
	for _, scope := range []storage.Scope{storage.ScopeRemember, storage.ScopeSession} {
		id, ok, err := v.loadScope(scope)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return id, nil
		}
	}
	return Identity{}, firstErr
}

func (v *IdentityVault) loadScope(scope storage.Scope) (Identity, bool, error) {
	s := v.store(scope)
	flag, ok, err := s.Get(KeyIsAuthenticated)
	if err != nil || !ok || flag != "true" {
		return Identity{}, false, err
	}
	name, _, err := s.Get(KeyUserName)
	if err != nil {
		return Identity{}, false, err
	}
	roleLabel, _, err := s.Get(KeyUserRole)
	if err != nil {
		return Identity{}, false, err
	}
	role, err := directory.ParseRole(roleLabel)
	if err != nil || name == "" {
		return Identity{}, false, nil
	}
	return Identity{Authenticated: true, Username: name, Role: role, Scope: scope}, true, nil
}

// Erase removes identity keys from both scopes. Both scopes are always
// attempted; the first failure is returned.
func (v *IdentityVault) Erase() error {
	var errs []error
	for _, s := range []storage.Store{v.remember, v.session} {
		if err := s.Delete(IdentityKeys...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClearSession removes everything from the session scope.
func (v *IdentityVault) ClearSession() error {
	return v.session.Clear()
}

// Has reports whether scope currently holds any identity key.
func (v *IdentityVault) Has(scope storage.Scope) bool {
	keys, err := v.store(scope).Keys()
	if err != nil {
		return true
	}
	for _, k := range keys {
		for _, ik := range IdentityKeys {
			if k == ik {
				return true
			}
		}
	}
	return false
}
