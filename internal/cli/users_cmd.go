// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/verifier-tui/internal/directory"
	"github.com/jeranaias/verifier-tui/internal/security"
)

// ErrAdminRequired is returned by commands reserved for administrators.
var ErrAdminRequired = errors.New("this command requires the Admin role")

// UserOutput is one row of "users list --json".
type UserOutput struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	PasswordSet bool   `json:"password_set"`
	TwoFactor   bool   `json:"two_factor"`
}

func handleUsers(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw)
	switch p.Subcommand() {
	case "", "list", "ls":
		return handleUsersList(ctx, env, args)
	case "enroll-2fa", "2fa":
		return handleUsersEnroll(ctx, env, args, p.Positional(1))
	default:
		return fmt.Errorf("unknown users subcommand: %s\n\nUsage:\n"+
			"  verifier users list             List staff accounts\n"+
			"  verifier users enroll-2fa USER  Enroll a TOTP authenticator", p.Subcommand())
	}
}

func handleUsersList(ctx context.Context, env *Env, args Args) error {
	if !env.Services.Auth.IsAuthenticated() {
		return security.ErrNotAuthenticated
	}
	accounts, err := env.Services.Directory.List(ctx)
	if err != nil {
		return err
	}

	rows := make([]UserOutput, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, UserOutput{
			Username:    a.Username,
			Role:        string(a.Role),
			PasswordSet: a.HasPassword(),
			TwoFactor:   a.HasTwoFactor(),
		})
	}
	if args.JSON {
		return writeJSON(env.Out, CmdUsers, rows)
	}

	col := func(s string, w int) string { return lipgloss.NewStyle().Width(w).Render(s) }
	fmt.Fprintln(env.Out, HeaderStyle.Render(col("USERNAME", 24)+col("ROLE", 18)+col("PASSWORD", 10)+"2FA"))
	for _, r := range rows {
		pw := "set"
		if !r.PasswordSet {
			pw = "pending"
		}
		tf := "-"
		if r.TwoFactor {
			tf = "enrolled"
		}
		fmt.Fprintln(env.Out, col(r.Username, 24)+col(r.Role, 18)+col(pw, 10)+tf)
	}
	return nil
}

// EnrollOutput is the JSON form of a new TOTP enrollment.
type EnrollOutput struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
	URL      string `json:"url"`
}

func handleUsersEnroll(ctx context.Context, env *Env, args Args, username string) error {
	id := env.Services.Auth.Identity()
	if !id.Authenticated {
		return security.ErrNotAuthenticated
	}
	if id.Role != directory.RoleAdmin {
		return ErrAdminRequired
	}
	if strings.TrimSpace(username) == "" {
		return errors.New("usage: verifier users enroll-2fa USER")
	}

	key, err := env.Services.Auth.EnrollTwoFactor(ctx, username)
	if errors.Is(err, directory.ErrAccountNotFound) {
		return fmt.Errorf("no account named %q", username)
	}
	if err != nil {
		return err
	}

	out := EnrollOutput{Username: username, Secret: key.Secret(), URL: key.URL()}
	if args.JSON {
		return writeJSON(env.Out, CmdUsers, out)
	}
	fmt.Fprintln(env.Out, TitleStyle.Render("Two-factor enrolled for "+username))
	fmt.Fprint(env.Out, field("Secret", out.Secret))
	fmt.Fprint(env.Out, field("URL", out.URL))
	fmt.Fprintln(env.Out, DimStyle.Render("Add the secret to an authenticator app. Sign in with --2fa from now on."))
	return nil
}
