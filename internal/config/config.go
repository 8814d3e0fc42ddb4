// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/verifier-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete verifier configuration.
type Config struct {
	Session  SessionConfig  `toml:"session"`
	Auth     AuthConfig     `toml:"auth"`
	Identity IdentityConfig `toml:"identity"`
	Security SecurityConfig `toml:"security"`
	Login    LoginConfig    `toml:"login"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
}

// SessionConfig controls the idle timeout policy.
type SessionConfig struct {
	// TimeoutMinutes is the idle time before forced logout.
	TimeoutMinutes int `toml:"timeout_minutes"`

	// WarningLeadMinutes is how long before expiry the warning appears.
	WarningLeadMinutes int `toml:"warning_lead_minutes"`
}

// AuthConfig selects and tunes the credential directory.
type AuthConfig struct {
	// Directory is the backend: "memory" or "sqlite".
	Directory        string `toml:"directory"`
	DatabasePath     string `toml:"database_path"`
	BcryptCost       int    `toml:"bcrypt_cost"`
	SeedDemoAccounts bool   `toml:"seed_demo_accounts"`
}

// IdentityConfig locates the two identity storage scopes.
type IdentityConfig struct {
	// RememberPath is the durable identity file.
	RememberPath string `toml:"remember_path"`

	// SessionDir holds the session-only identity. Empty means
	// $XDG_RUNTIME_DIR/verifier, and in-process memory when that is unset.
	SessionDir string `toml:"session_dir"`
}

// SecurityConfig mirrors the administrator security settings.
type SecurityConfig struct {
	MaxLoginAttempts     int            `toml:"max_login_attempts"`
	LockoutMinutes       int            `toml:"lockout_minutes"`
	AuditEnabled         bool           `toml:"audit_enabled"`
	AuditLogPath         string         `toml:"audit_log_path"`
	ResetIntervalMinutes int            `toml:"reset_interval_minutes"`
	PasswordPolicy       PasswordPolicy `toml:"password_policy"`
}

// PasswordPolicy is the rule set applied to new passwords.
type PasswordPolicy struct {
	MinLength        int  `toml:"min_length"`
	RequireUppercase bool `toml:"require_uppercase"`
	RequireLowercase bool `toml:"require_lowercase"`
	RequireNumbers   bool `toml:"require_numbers"`
	RequireSymbols   bool `toml:"require_symbols"`
}

// LoginConfig tunes the login form.
type LoginConfig struct {
	// SimulatedLatencyMs delays every form submission. Zero disables it.
	SimulatedLatencyMs int `toml:"simulated_latency_ms"`
}

// UIConfig contains terminal presentation settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme"`
	Mouse bool   `toml:"mouse"`
}

// LogConfig controls the application log.
type LogConfig struct {
	// Level is debug, info, warn, error or off.
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultSessionTimeoutMinutes is the idle limit before forced logout.
	DefaultSessionTimeoutMinutes = 30

	// DefaultWarningLeadMinutes is the warning lead before expiry.
	DefaultWarningLeadMinutes = 5

	// MinSessionTimeoutMinutes and MaxSessionTimeoutMinutes bound the
	// timeout the same way the security settings slider does.
	MinSessionTimeoutMinutes = 5
	MaxSessionTimeoutMinutes = 60

	// MinLoginAttempts and MaxLoginAttempts bound the lockout threshold.
	MinLoginAttempts = 3
	MaxLoginAttempts = 10

	// DefaultLatencyMs matches the delay of the original login form.
	DefaultLatencyMs = 1500

	// EnvPrefix is the prefix of every environment override.
	EnvPrefix = "VERIFIER_"
)

// Default returns a Config with default values and unresolved paths.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			TimeoutMinutes:     DefaultSessionTimeoutMinutes,
			WarningLeadMinutes: DefaultWarningLeadMinutes,
		},
		Auth: AuthConfig{
			Directory:        "memory",
			BcryptCost:       10,
			SeedDemoAccounts: true,
		},
		Security: SecurityConfig{
			MaxLoginAttempts:     5,
			LockoutMinutes:       15,
			AuditEnabled:         true,
			ResetIntervalMinutes: 10,
			PasswordPolicy: PasswordPolicy{
				MinLength: 8,
			},
		},
		Login: LoginConfig{
			SimulatedLatencyMs: DefaultLatencyMs,
		},
		UI: UIConfig{
			Theme: "auto",
			Mouse: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// SessionTimeout returns the idle timeout as a duration.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.Session.TimeoutMinutes) * time.Minute
}

// WarningLead returns the warning lead as a duration.
func (c *Config) WarningLead() time.Duration {
	return time.Duration(c.Session.WarningLeadMinutes) * time.Minute
}

// LoginLatency returns the simulated submission latency.
func (c *Config) LoginLatency() time.Duration {
	return time.Duration(c.Login.SimulatedLatencyMs) * time.Millisecond
}

// LockoutDuration returns how long a locked account stays locked.
func (c *Config) LockoutDuration() time.Duration {
	return time.Duration(c.Security.LockoutMinutes) * time.Minute
}

// ResetInterval returns the minimum gap between reset mails for one user.
func (c *Config) ResetInterval() time.Duration {
	return time.Duration(c.Security.ResetIntervalMinutes) * time.Minute
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the verifier configuration directory, ~/.verifier unless
// VERIFIER_CONFIG_DIR is set.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".verifier"), nil
}

// ConfigPath returns the path of config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ResolvePaths fills every empty path setting with its default under dir.
func (c *Config) ResolvePaths(dir string) {
	if c.Auth.DatabasePath == "" {
		c.Auth.DatabasePath = filepath.Join(dir, "directory.db")
	}
	if c.Identity.RememberPath == "" {
		c.Identity.RememberPath = filepath.Join(dir, "identity.json")
	}
	if c.Identity.SessionDir == "" {
		if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
			c.Identity.SessionDir = filepath.Join(runtime, "verifier")
		}
	}
	if c.Security.AuditLogPath == "" {
		c.Security.AuditLogPath = filepath.Join(dir, "audit.log")
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(dir, "verifier.log")
	}
}

// ensureSecurePermissions tightens a config file to owner read/write.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the configuration from the default location. A missing file
// yields defaults. Order: defaults, config.toml, .env, VERIFIER_* overrides.
func Load() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return LoadFromDir(dir)
}

// LoadFromDir loads config.toml and .env from dir.
func LoadFromDir(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	LoadDotEnv(dir)
	cfg.ApplyEnvOverrides()
	cfg.ResolvePaths(dir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg. Unknown keys are rejected so typos in
// security settings do not silently fall back to defaults.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadDotEnv loads .env from the working directory and from dir. Variables
// already present in the environment win; missing files are ignored.
func LoadDotEnv(dir string) {
	for _, path := range []string{".env", filepath.Join(dir, ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", path, err)
		}
	}
}

// Save writes cfg to the default config path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# verifier configuration file\n")
	buf.WriteString("# Generated by verifier - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.WriteFileAtomic(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies VERIFIER_* environment variables:
//   - VERIFIER_SESSION_TIMEOUT_MINUTES: session.timeout_minutes
//   - VERIFIER_WARNING_LEAD_MINUTES: session.warning_lead_minutes
//   - VERIFIER_DIRECTORY: auth.directory
//   - VERIFIER_DATABASE_PATH: auth.database_path
//   - VERIFIER_LOGIN_LATENCY_MS: login.simulated_latency_ms
//   - VERIFIER_LOG_LEVEL: log.level
//   - VERIFIER_THEME: ui.theme
//
// Unparseable integers are ignored and reported on stderr.
func (c *Config) ApplyEnvOverrides() {
	envInt("SESSION_TIMEOUT_MINUTES", &c.Session.TimeoutMinutes)
	envInt("WARNING_LEAD_MINUTES", &c.Session.WarningLeadMinutes)
	envInt("LOGIN_LATENCY_MS", &c.Login.SimulatedLatencyMs)

	if v := os.Getenv(EnvPrefix + "DIRECTORY"); v != "" {
		c.Auth.Directory = v
	}
	if v := os.Getenv(EnvPrefix + "DATABASE_PATH"); v != "" {
		c.Auth.DatabasePath = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPrefix + "THEME"); v != "" {
		c.UI.Theme = v
	}
}

func envInt(name string, dst *int) {
	raw := os.Getenv(EnvPrefix + name)
	if raw == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring %s%s=%q: not an integer\n", EnvPrefix, name, raw)
		return
	}
	*dst = n
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every setting and returns ValidateErrors on failure.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	s := c.Session
	if s.TimeoutMinutes < MinSessionTimeoutMinutes || s.TimeoutMinutes > MaxSessionTimeoutMinutes {
		add("session.timeout_minutes", "must be between %d and %d, got %d",
			MinSessionTimeoutMinutes, MaxSessionTimeoutMinutes, s.TimeoutMinutes)
	}
	if s.WarningLeadMinutes < 1 || s.WarningLeadMinutes >= s.TimeoutMinutes {
		add("session.warning_lead_minutes", "must be at least 1 and less than the timeout (%d), got %d",
			s.TimeoutMinutes, s.WarningLeadMinutes)
	}

	switch strings.ToLower(c.Auth.Directory) {
	case "memory", "sqlite":
	default:
		add("auth.directory", "invalid backend '%s', must be one of: memory, sqlite", c.Auth.Directory)
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		add("auth.bcrypt_cost", "must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}

	sec := c.Security
	if sec.MaxLoginAttempts < MinLoginAttempts || sec.MaxLoginAttempts > MaxLoginAttempts {
		add("security.max_login_attempts", "must be between %d and %d, got %d",
			MinLoginAttempts, MaxLoginAttempts, sec.MaxLoginAttempts)
	}
	if sec.LockoutMinutes < 1 {
		add("security.lockout_minutes", "must be positive, got %d", sec.LockoutMinutes)
	}
	if sec.ResetIntervalMinutes < 0 {
		add("security.reset_interval_minutes", "must not be negative, got %d", sec.ResetIntervalMinutes)
	}
	if sec.PasswordPolicy.MinLength < 8 || sec.PasswordPolicy.MinLength > 128 {
		add("security.password_policy.min_length", "must be between 8 and 128, got %d", sec.PasswordPolicy.MinLength)
	}

	if c.Login.SimulatedLatencyMs < 0 || c.Login.SimulatedLatencyMs > 10000 {
		add("login.simulated_latency_ms", "must be between 0 and 10000, got %d", c.Login.SimulatedLatencyMs)
	}

	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "off":
	default:
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error, off", c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// String renders the configuration as TOML for display.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
