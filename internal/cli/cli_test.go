// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/verifier-tui/internal/config"
	"github.com/jeranaias/verifier-tui/internal/login"
	"github.com/jeranaias/verifier-tui/internal/security"
	"github.com/jeranaias/verifier-tui/internal/ui/components"
)

// =============================================================================
// PARSING
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		argv []string
		cmd  Command
		sub  string
	}{
		{nil, CmdTUI, ""},
		{[]string{"tui"}, CmdTUI, ""},
		{[]string{"login", "alice"}, CmdLogin, "alice"},
		{[]string{"signin"}, CmdLogin, ""},
		{[]string{"whoami"}, CmdWhoami, ""},
		{[]string{"logout"}, CmdLogout, ""},
		{[]string{"passwd"}, CmdPasswd, ""},
		{[]string{"users", "list"}, CmdUsers, "list"},
		{[]string{"config", "path"}, CmdConfig, "path"},
		{[]string{"--version"}, CmdVersion, ""},
		{[]string{"help"}, CmdHelp, ""},
	}
	for _, tt := range tests {
		cmd, args, err := Parse(tt.argv)
		require.NoError(t, err, tt.argv)
		assert.Equal(t, tt.cmd, cmd, tt.argv)
		assert.Equal(t, tt.sub, args.Subcommand, tt.argv)
	}
}

func TestParse_GlobalFlagsAnywhere(t *testing.T) {
	cmd, args, err := Parse([]string{"--json", "whoami", "--config-dir", "/tmp/v", "-q"})
	require.NoError(t, err)
	assert.Equal(t, CmdWhoami, cmd)
	assert.True(t, args.JSON)
	assert.True(t, args.Quiet)
	assert.Equal(t, "/tmp/v", args.ConfigDir)
	assert.Empty(t, args.Raw)

	_, args, err = Parse([]string{"--config-dir=/x", "tui"})
	require.NoError(t, err)
	assert.Equal(t, "/x", args.ConfigDir)

	_, _, err = Parse([]string{"--config-dir"})
	assert.Error(t, err)
}

func TestParse_UnknownCommand(t *testing.T) {
	cmd, _, err := Parse([]string{"frobnicate"})
	assert.Error(t, err)
	assert.Equal(t, CmdHelp, cmd)
}

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"--remember", "alice", "--level", "debug", "--mode=fast", "--", "-x"}, "remember")
	assert.True(t, p.BoolFlag("remember"))
	assert.Equal(t, "alice", p.Subcommand())
	assert.Equal(t, "debug", p.Flag("level"))
	assert.Equal(t, "fast", p.Flag("--mode"))
	assert.Equal(t, "-x", p.Positional(1))
	assert.Equal(t, 2, p.PositionalCount())
	assert.Equal(t, "", p.Positional(5))
	assert.Equal(t, "dflt", p.FlagOrDefault("missing", "dflt"))
	assert.True(t, p.HasFlag("level"))
	assert.False(t, p.HasFlag("json"))

	// undeclared boolean flags still swallow a following value
	p = NewArgParser([]string{"--verbose", "alice"})
	assert.Equal(t, "alice", p.Flag("verbose"))
	assert.Zero(t, p.PositionalCount())
}

// =============================================================================
// COMMANDS
// =============================================================================

type scriptedPrompter struct {
	answers []string
	asked   []string
}

func (s *scriptedPrompter) next(label string) (string, error) {
	s.asked = append(s.asked, label)
	if len(s.answers) == 0 {
		return "", errors.New("unexpected prompt: " + label)
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *scriptedPrompter) Prompt(label string) (string, error) { return s.next(label) }
func (s *scriptedPrompter) Secret(label string) (string, error) { return s.next(label) }
func (s *scriptedPrompter) Close() error                        { return nil }

type harness struct {
	t   *testing.T
	dir string
	cfg *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Auth.Directory = "sqlite"
	cfg.Auth.BcryptCost = 4
	cfg.Log.Level = "off"
	cfg.Security.AuditEnabled = false
	cfg.ResolvePaths(dir)
	cfg.Identity.SessionDir = filepath.Join(dir, "run")
	return &harness{t: t, dir: dir, cfg: cfg}
}

// run executes one command in a fresh process-like environment.
func (h *harness) run(argv []string, answers ...string) (string, error) {
	h.t.Helper()
	cmd, args, err := Parse(argv)
	require.NoError(h.t, err)

	var out bytes.Buffer
	prompter := &scriptedPrompter{answers: answers}
	err = Execute(context.Background(), cmd, args, &Env{
		Config:    h.cfg,
		ConfigDir: h.dir,
		Out:       &out,
		Prompter:  prompter,
	})
	assert.Empty(h.t, prompter.answers, "unused answers")
	return out.String(), err
}

func TestLogin_WhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.run([]string{"login", "test"}, "test")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as test (Admin)")

	out, err = h.run([]string{"whoami"})
	require.NoError(t, err)
	assert.Contains(t, out, "test")
	assert.Contains(t, out, "Session only")

	out, err = h.run([]string{"logout"})
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out test")

	_, err = h.run([]string{"whoami"})
	assert.ErrorIs(t, err, security.ErrNotAuthenticated)
}

func TestLogin_PromptsForUsername(t *testing.T) {
	h := newHarness(t)
	_, err := h.run([]string{"login", "--remember"}, "senior@verify.com", "senior123")
	require.NoError(t, err)

	out, err := h.run([]string{"--json", "whoami"})
	require.NoError(t, err)
	var resp struct {
		Data IdentityOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, IdentityOutput{
		Authenticated: true,
		Username:      "senior@verify.com",
		Role:          "Senior Verifier",
		Scope:         "remember",
	}, resp.Data)
}

func TestLogin_Rejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.run([]string{"login", "test"}, "nope")
	require.Error(t, err)
	assert.Equal(t, login.MsgInvalidCredentials, err.Error())

	_, err = h.run([]string{"login", "test"}, "")
	require.Error(t, err)
	assert.Equal(t, login.MsgPasswordRequired, err.Error())
}

func TestLogin_CreatePassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run([]string{"login", "--create", "new@verify.com"}, "short", "short")
	require.Error(t, err)
	assert.Equal(t, login.MsgPasswordTooShort(8), err.Error())

	out, err := h.run([]string{"login", "--create", "new@verify.com"}, "first-pass1", "first-pass1")
	require.NoError(t, err)
	assert.Contains(t, out, "Junior Verifier")

	_, err = h.run([]string{"login", "--create", "new@verify.com"}, "again-pass1", "again-pass1")
	require.Error(t, err)
	assert.Equal(t, login.MsgCreateFailed, err.Error())

	_, err = h.run([]string{"login", "--create", "ghost@verify.com"})
	require.Error(t, err)
	assert.Equal(t, login.MsgUsernameUnknown, err.Error())
}

func TestLogin_ForgotPassword(t *testing.T) {
	h := newHarness(t)
	out, err := h.run([]string{"login", "--forgot", "junior@verify.com"})
	require.NoError(t, err)
	assert.Contains(t, out, login.MsgResetSent)
}

func TestLogin_TwoFactor(t *testing.T) {
	h := newHarness(t)
	_, err := h.run([]string{"login", "test"}, "test")
	require.NoError(t, err)

	out, err := h.run([]string{"--json", "users", "enroll-2fa", "junior@verify.com"})
	require.NoError(t, err)
	var resp struct {
		Data EnrollOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Data.Secret)

	_, err = h.run([]string{"login", "--2fa", "junior@verify.com"}, "junior123", "12ab")
	require.Error(t, err)
	assert.Equal(t, login.MsgCodeFormat, err.Error())

	code, err := security.NewTwoFactorVerifier(nil, "").CurrentCode(resp.Data.Secret)
	require.NoError(t, err)
	out, err = h.run([]string{"login", "--2fa", "junior@verify.com"}, "junior123", code)
	require.NoError(t, err)
	assert.Contains(t, out, "junior@verify.com")
}

func TestUsers_List(t *testing.T) {
	h := newHarness(t)

	_, err := h.run([]string{"users", "list"})
	assert.ErrorIs(t, err, security.ErrNotAuthenticated)

	_, err = h.run([]string{"login", "junior@verify.com"}, "junior123")
	require.NoError(t, err)

	out, err := h.run([]string{"users"})
	require.NoError(t, err)
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "admin@verify.com")
	assert.Contains(t, out, "pending")

	_, err = h.run([]string{"users", "enroll-2fa", "test"})
	assert.ErrorIs(t, err, ErrAdminRequired)
}

func TestPasswd(t *testing.T) {
	h := newHarness(t)
	_, err := h.run([]string{"passwd"})
	assert.ErrorIs(t, err, security.ErrNotAuthenticated)

	_, err = h.run([]string{"login", "admin@verify.com"}, "admin123")
	require.NoError(t, err)

	_, err = h.run([]string{"passwd"}, "wrong", "rotated-pass1", "rotated-pass1")
	require.Error(t, err)
	assert.Equal(t, components.MsgCurrentIncorrect, err.Error())

	_, err = h.run([]string{"passwd"}, "admin123", "rotated-pass1", "different1")
	require.Error(t, err)
	assert.Equal(t, login.MsgPasswordMismatch, err.Error())

	out, err := h.run([]string{"passwd"}, "admin123", "rotated-pass1", "rotated-pass1")
	require.NoError(t, err)
	assert.Contains(t, out, "Password updated")

	_, err = h.run([]string{"logout", "-q"})
	require.NoError(t, err)
	_, err = h.run([]string{"login", "admin@verify.com"}, "rotated-pass1")
	require.NoError(t, err)
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run([]string{"config", "path"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.dir, "config.toml")+"\n", out)

	out, err = h.run([]string{"config", "init"})
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")
	info, err := os.Stat(filepath.Join(h.dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = h.run([]string{"config", "init"})
	assert.Error(t, err)
	_, err = h.run([]string{"config", "init", "--force"})
	assert.NoError(t, err)

	loaded, err := config.LoadFromDir(h.dir)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSessionTimeoutMinutes, loaded.Session.TimeoutMinutes)

	out, err = h.run([]string{"config"})
	require.NoError(t, err)
	assert.Contains(t, out, "timeout_minutes")
}

func TestVersionAndHelp(t *testing.T) {
	h := newHarness(t)
	out, err := h.run([]string{"version"})
	require.NoError(t, err)
	assert.Contains(t, out, Version)

	out, err = h.run([]string{"help"})
	require.NoError(t, err)
	assert.Contains(t, out, "verifier login")
}
