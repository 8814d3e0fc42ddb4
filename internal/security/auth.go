// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pquerna/otp"
	"go.uber.org/zap"

	"github.com/jeranaias/verifier-tui/internal/directory"
	"github.com/jeranaias/verifier-tui/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidCredentials covers every username or password mismatch.
	// Callers cannot tell an unknown user from a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidCode is returned when the second-step code is rejected.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrAccountLocked is returned while too many failures lock an account.
	ErrAccountLocked = errors.New("account temporarily locked")

	// ErrNotAuthenticated is returned by operations that need a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrCannotCreatePassword is returned when the account does not exist or
	// already has a password.
	ErrCannotCreatePassword = errors.New("password cannot be created for this account")
)

// =============================================================================
// NAVIGATION
// =============================================================================

// Route names a top-level screen.
type Route string

const (
	RouteLanding Route = "/"
	RouteLogin   Route = "/login"
)

// Navigator switches screens. With replace set the previous screen is not
// kept for going back.
type Navigator interface {
	Navigate(route Route, replace bool)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route Route, replace bool)

// Navigate calls f.
func (f NavigatorFunc) Navigate(route Route, replace bool) {
	f(route, replace)
}

type noopNavigator struct{}

func (noopNavigator) Navigate(Route, bool) {}

// =============================================================================
// AUTH MANAGER
// =============================================================================

// AuthManager owns the signed-in identity. It checks credentials against a
// directory, persists the identity through an IdentityVault and tells
// subscribers and the navigator about every transition.
type AuthManager struct {
	dir       directory.Directory
	vault     *IdentityVault
	hasher    *PasswordHasher
	policy    PasswordPolicy
	lockout   *LockoutManager
	twoFactor *TwoFactorVerifier
	reset     *ResetNotifier
	nav       Navigator
	audit     *AuditLogger
	logger    *zap.Logger

	mu       sync.Mutex
	identity Identity
	subs     map[int]func(Identity)
	nextSub  int
}

// AuthOption is a functional option for configuring AuthManager.
type AuthOption func(*AuthManager)

// WithNavigator sets where navigation signals go.
func WithNavigator(n Navigator) AuthOption {
	return func(a *AuthManager) {
		if n != nil {
			a.nav = n
		}
	}
}

// WithLockout enables failed-login lockout.
func WithLockout(l *LockoutManager) AuthOption {
	return func(a *AuthManager) {
		a.lockout = l
	}
}

// WithAuditLogger sets the audit trail.
func WithAuditLogger(l *AuditLogger) AuthOption {
	return func(a *AuthManager) {
		a.audit = l
	}
}

// WithLogger sets the application logger.
func WithLogger(l *zap.Logger) AuthOption {
	return func(a *AuthManager) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithPolicy sets the password policy for new passwords.
func WithPolicy(p PasswordPolicy) AuthOption {
	return func(a *AuthManager) {
		a.policy = p
	}
}

// WithHasher sets the password hasher.
func WithHasher(h *PasswordHasher) AuthOption {
	return func(a *AuthManager) {
		if h != nil {
			a.hasher = h
		}
	}
}

// WithTwoFactor sets the second-step verifier.
func WithTwoFactor(v *TwoFactorVerifier) AuthOption {
	return func(a *AuthManager) {
		if v != nil {
			a.twoFactor = v
		}
	}
}

// WithResetNotifier sets how reset instructions are delivered.
func WithResetNotifier(r *ResetNotifier) AuthOption {
	return func(a *AuthManager) {
		if r != nil {
			a.reset = r
		}
	}
}

// NewAuthManager creates an AuthManager over dir and vault.
func NewAuthManager(dir directory.Directory, vault *IdentityVault, opts ...AuthOption) *AuthManager {
	a := &AuthManager{
		dir:       dir,
		vault:     vault,
		hasher:    NewPasswordHasher(DefaultBcryptCost),
		policy:    DefaultPasswordPolicy(),
		twoFactor: NewTwoFactorVerifier(nil, ""),
		nav:       noopNavigator{},
		logger:    zap.NewNop(),
		subs:      make(map[int]func(Identity)),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.reset == nil {
		a.reset = NewResetNotifier(LogResetSender{Logger: a.logger}, nil, 0, a.audit)
	}
	return a
}

// Identity returns the current identity.
func (a *AuthManager) Identity() Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identity
}

// IsAuthenticated reports whether a user is signed in.
func (a *AuthManager) IsAuthenticated() bool {
	return a.Identity().Authenticated
}

// Policy returns the password policy.
func (a *AuthManager) Policy() PasswordPolicy {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.policy
}

// SetPolicy replaces the password policy for later password changes.
func (a *AuthManager) SetPolicy(p PasswordPolicy) {
	a.mu.Lock()
	a.policy = p
	a.mu.Unlock()
}

// SetNavigator replaces the navigator. The UI is usually built after the
// manager, so it attaches itself here.
func (a *AuthManager) SetNavigator(n Navigator) {
	if n == nil {
		n = noopNavigator{}
	}
	a.mu.Lock()
	a.nav = n
	a.mu.Unlock()
}

func (a *AuthManager) navigate(route Route, replace bool) {
	a.mu.Lock()
	nav := a.nav
	a.mu.Unlock()
	nav.Navigate(route, replace)
}

// Directory returns the credentials store.
func (a *AuthManager) Directory() directory.Directory {
	return a.dir
}

// Subscribe registers fn to receive the identity after every transition.
// Callbacks run on the goroutine that caused the transition, after the
// manager's lock is released.
func (a *AuthManager) Subscribe(fn func(Identity)) (cancel func()) {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
		})
	}
}

func (a *AuthManager) notify(id Identity) {
	a.mu.Lock()
	ids := make([]int, 0, len(a.subs))
	for k := range a.subs {
		ids = append(ids, k)
	}
	sort.Ints(ids)
	fns := make([]func(Identity), 0, len(ids))
	for _, k := range ids {
		fns = append(fns, a.subs[k])
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}

// =============================================================================
// SIGN-IN
// =============================================================================

// Rehydrate restores a persisted identity from an earlier run. Identities
// whose account no longer exists, and tampered files, are erased.
func (a *AuthManager) Rehydrate(ctx context.Context) (Identity, error) {
	id, err := a.vault.Load()
	if err != nil {
		if errors.Is(err, storage.ErrTampered) {
			a.audit.LogEvent(EventIdentityTampered, "", "", false, nil)
			a.logger.Warn("persisted identity failed verification; erasing")
			_ = a.vault.Erase()
			return Identity{}, nil
		}
		return Identity{}, fmt.Errorf("load identity: %w", err)
	}
	if !id.Authenticated {
		return Identity{}, nil
	}

	if _, err := a.dir.Lookup(ctx, id.Username); err != nil {
		if errors.Is(err, directory.ErrAccountNotFound) {
			a.logger.Info("persisted identity has no account; erasing")
			_ = a.vault.Erase()
			return Identity{}, nil
		}
		return Identity{}, fmt.Errorf("lookup persisted identity: %w", err)
	}

	a.mu.Lock()
	a.identity = id
	a.mu.Unlock()
	a.notify(id)
	return id, nil
}

// authenticate checks username and password. Lockout is consulted first,
// and every failure is counted against the username.
func (a *AuthManager) authenticate(ctx context.Context, username, password string) (directory.Account, error) {
	if a.lockout.IsLocked(username) {
		a.audit.LogEvent(EventLoginBlocked, "", MaskIdentifier(username), false, nil)
		return directory.Account{}, ErrAccountLocked
	}

	acct, err := a.dir.Lookup(ctx, username)
	if err != nil && !errors.Is(err, directory.ErrAccountNotFound) {
		return directory.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	// always pay for one comparison
	if !a.hasher.Verify(acct.PasswordHash, password) {
		return directory.Account{}, a.fail(username, "credentials", ErrInvalidCredentials)
	}
	return acct, nil
}

func (a *AuthManager) fail(username, stage string, cause error) error {
	a.audit.LogEvent(EventLoginFailure, "", MaskIdentifier(username), false, map[string]string{"stage": stage})
	if err := a.lockout.RecordAttempt(username, false); errors.Is(err, ErrLocked) {
		return ErrAccountLocked
	}
	return cause
}

// Login signs username in with password. On success the identity is
// persisted to the remember scope when remember is set and to the session
// scope otherwise, and the navigator is sent to the landing screen.
func (a *AuthManager) Login(ctx context.Context, username, password string, remember bool) error {
	acct, err := a.authenticate(ctx, username, password)
	if err != nil {
		return err
	}
	a.establish(acct, acct.Role, scopeFor(remember), EventLoginSuccess)
	return nil
}

// LoginWithCode is Login with a second-step code.
func (a *AuthManager) LoginWithCode(ctx context.Context, username, password, code string, remember bool) error {
	acct, err := a.authenticate(ctx, username, password)
	if err != nil {
		return err
	}
	if !a.twoFactor.Verify(acct, code) {
		return a.fail(username, "code", ErrInvalidCode)
	}
	a.establish(acct, acct.Role, scopeFor(remember), EventLoginSuccess)
	return nil
}

func scopeFor(remember bool) storage.Scope {
	if remember {
		return storage.ScopeRemember
	}
	return storage.ScopeSession
}

// establish makes acct the signed-in identity. A persistence failure is
// logged but does not fail the sign-in.
func (a *AuthManager) establish(acct directory.Account, role directory.Role, scope storage.Scope, event string) {
	a.lockout.Reset(acct.Username)

	id := Identity{Authenticated: true, Username: acct.Username, Role: role, Scope: scope}
	if err := a.vault.Save(id); err != nil {
		a.logger.Warn("failed to persist identity", zap.String("scope", scope.String()), zap.Error(err))
	}

	a.mu.Lock()
	a.identity = id
	a.mu.Unlock()

	a.audit.LogEvent(event, "", acct.Username, true, map[string]string{
		"role":  string(role),
		"scope": scope.String(),
	})
	a.logger.Info("signed in", zap.String("user", acct.Username), zap.String("scope", scope.String()))

	a.notify(id)
	a.navigate(RouteLanding, false)
}

// CreatePassword sets the first password of a provisioned account and signs
// it in with the lowest role. It succeeds at most once per account.
func (a *AuthManager) CreatePassword(ctx context.Context, username, password string) error {
	if err := a.Policy().Check(password); err != nil {
		return err
	}
	hash, err := a.hasher.Hash(password)
	if err != nil {
		return err
	}

	err = a.dir.ClaimPassword(ctx, username, hash)
	switch {
	case errors.Is(err, directory.ErrAccountNotFound), errors.Is(err, directory.ErrPasswordAlreadySet):
		a.audit.LogEvent(EventPasswordCreated, "", MaskIdentifier(username), false, nil)
		return ErrCannotCreatePassword
	case err != nil:
		return fmt.Errorf("store password: %w", err)
	}

	a.establish(directory.Account{Username: username}, directory.LowestRole, storage.ScopeRemember, EventPasswordCreated)
	return nil
}

// =============================================================================
// SIGN-OUT
// =============================================================================

// Logout signs out and erases the identity from both scopes. It is safe to
// call when nobody is signed in; subscribers only hear about a real
// transition.
func (a *AuthManager) Logout() {
	a.signOut(EventLogout, false)
}

// Expire is Logout after an idle timeout. It also clears the whole session
// scope.
func (a *AuthManager) Expire() {
	a.signOut(EventSessionExpired, true)
}

func (a *AuthManager) signOut(event string, clearSession bool) {
	a.mu.Lock()
	prev := a.identity
	a.identity = Identity{}
	a.mu.Unlock()

	if err := a.vault.Erase(); err != nil {
		a.logger.Warn("failed to erase identity", zap.Error(err))
	}
	if clearSession {
		if err := a.vault.ClearSession(); err != nil {
			a.logger.Warn("failed to clear session scope", zap.Error(err))
		}
	}

	if prev.Authenticated {
		if event == EventLogout {
			a.audit.LogEvent(event, "", prev.Username, true, nil)
		}
		a.logger.Info("signed out", zap.String("user", prev.Username), zap.String("reason", event))
		a.notify(Identity{})
	}
	a.navigate(RouteLogin, true)
}

// =============================================================================
// ACCOUNT OPERATIONS
// =============================================================================

// ValidateUsername reports whether an account exists, with or without a
// password.
func (a *AuthManager) ValidateUsername(ctx context.Context, username string) bool {
	if username == "" {
		return false
	}
	_, err := a.dir.Lookup(ctx, username)
	if err != nil && !errors.Is(err, directory.ErrAccountNotFound) {
		a.logger.Warn("username lookup failed", zap.Error(err))
	}
	return err == nil
}

// ForgotPassword requests reset instructions. It reports whether the
// account exists; delivery failures and throttling are not visible to the
// caller.
func (a *AuthManager) ForgotPassword(ctx context.Context, username string) bool {
	if !a.ValidateUsername(ctx, username) {
		return false
	}
	if _, err := a.reset.Notify(ctx, username); err != nil {
		a.logger.Warn("reset delivery failed", zap.Error(err))
	}
	return true
}

// ChangePassword replaces the signed-in user's password after checking the
// current one.
func (a *AuthManager) ChangePassword(ctx context.Context, current, next string) error {
	id := a.Identity()
	if !id.Authenticated {
		return ErrNotAuthenticated
	}

	acct, err := a.dir.Lookup(ctx, id.Username)
	if err != nil && !errors.Is(err, directory.ErrAccountNotFound) {
		return fmt.Errorf("lookup account: %w", err)
	}
	if !a.hasher.Verify(acct.PasswordHash, current) {
		a.audit.LogEvent(EventPasswordChanged, "", id.Username, false, map[string]string{"reason": "current password mismatch"})
		return ErrInvalidCredentials
	}
	if err := a.Policy().Check(next); err != nil {
		return err
	}

	hash, err := a.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := a.dir.UpdatePassword(ctx, id.Username, hash); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	a.audit.LogEvent(EventPasswordChanged, "", id.Username, true, nil)
	return nil
}

// EnrollTwoFactor generates and stores a TOTP secret for username.
func (a *AuthManager) EnrollTwoFactor(ctx context.Context, username string) (*otp.Key, error) {
	if _, err := a.dir.Lookup(ctx, username); err != nil {
		return nil, err
	}
	key, err := a.twoFactor.Enroll(username)
	if err != nil {
		return nil, err
	}
	if err := a.dir.SetTOTPSecret(ctx, username, key.Secret()); err != nil {
		return nil, fmt.Errorf("store totp secret: %w", err)
	}
	a.audit.LogEvent(EventTwoFactorEnrolled, "", username, true, nil)
	return key, nil
}
