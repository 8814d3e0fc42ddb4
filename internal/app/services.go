// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/verifier-tui/internal/clock"
	"github.com/jeranaias/verifier-tui/internal/config"
	"github.com/jeranaias/verifier-tui/internal/directory"
	"github.com/jeranaias/verifier-tui/internal/security"
	"github.com/jeranaias/verifier-tui/internal/storage"
	"github.com/jeranaias/verifier-tui/internal/telemetry"
)

// SecretFileName is the installation secret that seals identity files. It
// lives next to the remembered identity.
const SecretFileName = "identity.key"

// SessionFileName is the session-only identity file inside the session dir.
const SessionFileName = "session.json"

// Services holds every long-lived object of a verifier process. The TUI and
// the CLI commands share it.
type Services struct {
	Config    *config.Config
	Clock     clock.Clock
	Logger    *zap.Logger
	Audit     *security.AuditLogger
	Directory directory.Directory
	Vault     *security.IdentityVault
	Lockout   *security.LockoutManager
	Auth      *security.AuthManager
	Activity  *security.ActivityBus
	Monitor   *security.SessionMonitor

	closers []func() error
}

// NewServices builds the service graph from cfg. Timers of the session
// monitor run on clk. Close releases files and the database.
func NewServices(ctx context.Context, cfg *config.Config, clk clock.Clock) (*Services, error) {
	if clk == nil {
		clk = clock.Real()
	}
	s := &Services{Config: cfg, Clock: clk}

	logger, closeLog, err := telemetry.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	s.Logger = logger
	s.closers = append(s.closers, func() error { closeLog(); return nil })

	if cfg.Security.AuditEnabled {
		audit, err := security.NewAuditLogger(cfg.Security.AuditLogPath)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		s.Audit = audit
		s.closers = append(s.closers, audit.Close)
	}

	hasher := security.NewPasswordHasher(cfg.Auth.BcryptCost)
	dir, err := openDirectory(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Directory = dir
	s.closers = append(s.closers, dir.Close)

	if cfg.Auth.SeedDemoAccounts {
		if err := directory.Seed(ctx, dir, directory.DemoAccounts(), hasher.Hash); err != nil {
			s.Close()
			return nil, fmt.Errorf("seed directory: %w", err)
		}
	}

	vault, err := openVault(cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Vault = vault

	s.Lockout = security.NewLockoutManager(
		security.WithMaxAttempts(cfg.Security.MaxLoginAttempts),
		security.WithLockoutDuration(cfg.LockoutDuration()),
		security.WithLockoutClock(clk),
		security.WithLockoutAudit(s.Audit),
	)

	reset := security.NewResetNotifier(
		security.LogResetSender{Logger: logger},
		clk, cfg.ResetInterval(), s.Audit,
	)

	s.Auth = security.NewAuthManager(dir, vault,
		security.WithLockout(s.Lockout),
		security.WithAuditLogger(s.Audit),
		security.WithLogger(logger),
		security.WithPolicy(PasswordPolicy(cfg)),
		security.WithHasher(hasher),
		security.WithTwoFactor(security.NewTwoFactorVerifier(clk, security.DefaultIssuer)),
		security.WithResetNotifier(reset),
	)

	s.Activity = security.NewActivityBus()
	s.Monitor = security.NewSessionMonitor(s.Auth, s.Activity,
		security.WithMonitorClock(clk),
		security.WithSessionPolicy(SessionPolicy(cfg)),
		security.WithMonitorAudit(s.Audit),
		security.WithMonitorLogger(logger),
	)
	return s, nil
}

// Close releases resources in reverse order of acquisition.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func openDirectory(ctx context.Context, cfg *config.Config) (directory.Directory, error) {
	switch strings.ToLower(cfg.Auth.Directory) {
	case "sqlite":
		d, err := directory.OpenSQLite(ctx, cfg.Auth.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open directory: %w", err)
		}
		return d, nil
	default:
		return directory.NewMemory(), nil
	}
}

// openVault builds the two identity scopes. The session scope is a file in
// the runtime dir when one is configured and process memory otherwise.
func openVault(cfg *config.Config, logger *zap.Logger) (*security.IdentityVault, error) {
	secretPath := filepath.Join(filepath.Dir(cfg.Identity.RememberPath), SecretFileName)
	secret, err := storage.LoadOrCreateSecret(secretPath)
	if err != nil {
		return nil, fmt.Errorf("load identity secret: %w", err)
	}
	sealer := storage.NewSealer(secret, "identity")

	remember := storage.NewFileStore(cfg.Identity.RememberPath, sealer)

	var session storage.Store
	if cfg.Identity.SessionDir != "" {
		session = storage.NewFileStore(filepath.Join(cfg.Identity.SessionDir, SessionFileName), sealer)
	} else {
		logger.Debug("no runtime dir; session-only identity kept in memory")
		session = storage.NewMemoryStore()
	}
	return security.NewIdentityVault(remember, session), nil
}

// SessionPolicy converts the session settings.
func SessionPolicy(cfg *config.Config) security.SessionPolicy {
	return security.SessionPolicy{
		Timeout:     cfg.SessionTimeout(),
		WarningLead: cfg.WarningLead(),
	}
}

// PasswordPolicy converts the password policy settings.
func PasswordPolicy(cfg *config.Config) security.PasswordPolicy {
	p := cfg.Security.PasswordPolicy
	return security.PasswordPolicy{
		MinLength:        p.MinLength,
		RequireUppercase: p.RequireUppercase,
		RequireLowercase: p.RequireLowercase,
		RequireNumbers:   p.RequireNumbers,
		RequireSymbols:   p.RequireSymbols,
	}
}
