// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/verifier-tui/internal/app"
	"github.com/jeranaias/verifier-tui/internal/login"
	"github.com/jeranaias/verifier-tui/internal/security"
	"github.com/jeranaias/verifier-tui/internal/storage"
	"github.com/jeranaias/verifier-tui/internal/ui/components"
)

// =============================================================================
// LOGIN
// =============================================================================

// LoginArgs holds parsed login arguments.
type LoginArgs struct {
	Username  string
	Remember  bool
	TwoFactor bool
	Create    bool
	Forgot    bool
}

func parseLoginArgs(raw []string) LoginArgs {
	p := NewArgParser(raw, "remember", "2fa", "create", "forgot")
	return LoginArgs{
		Username:  p.Positional(0),
		Remember:  p.BoolFlag("remember"),
		TwoFactor: p.BoolFlag("2fa"),
		Create:    p.BoolFlag("create"),
		Forgot:    p.BoolFlag("forgot"),
	}
}

// handleLogin walks the sign-in flow on the terminal. The flow is the same
// state machine the TUI form drives, so validation and messages match.
func handleLogin(ctx context.Context, env *Env, args Args) error {
	la := parseLoginArgs(args.Raw)
	auth := env.Services.Auth

	flow := login.New(auth, login.WithMinPasswordLength(app.PasswordPolicy(env.Config).MinLength))
	flow.SetRemember(la.Remember)
	switch {
	case la.Create:
		flow.StartPasswordCreation()
	case la.Forgot:
		flow.StartForgotPassword()
	}
	flow.SetUsername(la.Username)

	for {
		switch flow.Step() {
		case login.StepDone:
			return reportSignedIn(env, args, auth.Identity())
		case login.StepResetSent:
			if !args.Quiet {
				fmt.Fprintln(env.Out, login.MsgResetSent)
			}
			return nil
		case login.StepCredentials:
			if err := askUsername(env, flow); err != nil {
				return err
			}
			pw, err := env.Prompter.Secret("Password: ")
			if err != nil {
				return err
			}
			flow.SetPassword(pw)
			if la.TwoFactor {
				flow.UseTwoFactor()
				continue
			}
		case login.StepTwoFactor:
			code, err := env.Prompter.Prompt("Verification code: ")
			if err != nil {
				return err
			}
			flow.SetCode(code)
		case login.StepCreateUsername, login.StepForgotPassword:
			if err := askUsername(env, flow); err != nil {
				return err
			}
		case login.StepCreatePassword:
			if !args.Quiet {
				fmt.Fprintln(env.Out, DimStyle.Render(env.Services.Auth.Policy().Describe()))
			}
			pw, err := env.Prompter.Secret("New password: ")
			if err != nil {
				return err
			}
			confirm, err := env.Prompter.Secret("Confirm password: ")
			if err != nil {
				return err
			}
			flow.SetPassword(pw)
			flow.SetConfirm(confirm)
		}

		if op := flow.Submit(); op != nil {
			flow.Resolve(op.Run(ctx))
		}
		if msg := flow.Error(); msg != "" {
			return errors.New(msg)
		}
	}
}

func askUsername(env *Env, flow *login.Flow) error {
	if strings.TrimSpace(flow.Username()) != "" {
		return nil
	}
	u, err := env.Prompter.Prompt("Username: ")
	if err != nil {
		return err
	}
	flow.SetUsername(u)
	return nil
}

func reportSignedIn(env *Env, args Args, id security.Identity) error {
	if args.JSON {
		return writeJSON(env.Out, CmdLogin, identityJSON(id))
	}
	if args.Quiet {
		return nil
	}
	fmt.Fprintln(env.Out, SuccessStyle.Render(fmt.Sprintf("Signed in as %s (%s)", id.Username, id.Role)))
	if id.Scope == storage.ScopeSession && env.Config.Identity.SessionDir == "" {
		fmt.Fprintln(env.Out, WarningStyle.Render(
			"No runtime directory is available, so this sign-in ends with the command. Use --remember to keep it."))
	}
	return nil
}

// =============================================================================
// WHOAMI / LOGOUT
// =============================================================================

// IdentityOutput is the JSON form of the signed-in identity.
type IdentityOutput struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Role          string `json:"role,omitempty"`
	Scope         string `json:"scope,omitempty"`
}

func identityJSON(id security.Identity) IdentityOutput {
	if !id.Authenticated {
		return IdentityOutput{}
	}
	return IdentityOutput{
		Authenticated: true,
		Username:      id.Username,
		Role:          string(id.Role),
		Scope:         id.Scope.String(),
	}
}

func handleWhoami(env *Env, args Args) error {
	id := env.Services.Auth.Identity()
	if args.JSON {
		return writeJSON(env.Out, CmdWhoami, identityJSON(id))
	}
	if !id.Authenticated {
		return security.ErrNotAuthenticated
	}

	sign := "Session only"
	if id.Scope == storage.ScopeRemember {
		sign = "Remembered on this device"
	}
	fmt.Fprintln(env.Out, TitleStyle.Render("Signed in"))
	fmt.Fprint(env.Out, field("User", id.Username))
	fmt.Fprint(env.Out, field("Role", string(id.Role)))
	fmt.Fprint(env.Out, field("Sign-in", sign))
	return nil
}

func handleLogout(env *Env, args Args) error {
	auth := env.Services.Auth
	was := auth.Identity()
	auth.Logout()

	if args.Quiet {
		return nil
	}
	if was.Authenticated {
		fmt.Fprintf(env.Out, "Signed out %s\n", was.Username)
	} else {
		fmt.Fprintln(env.Out, "Not signed in; stored identities cleared")
	}
	return nil
}

// =============================================================================
// PASSWD
// =============================================================================

func handlePasswd(ctx context.Context, env *Env, args Args) error {
	auth := env.Services.Auth
	if !auth.IsAuthenticated() {
		return security.ErrNotAuthenticated
	}

	current, err := env.Prompter.Secret("Current password: ")
	if err != nil {
		return err
	}
	if current == "" {
		return errors.New(components.MsgCurrentRequired)
	}
	if !args.Quiet {
		fmt.Fprintln(env.Out, DimStyle.Render(auth.Policy().Describe()))
	}
	next, err := env.Prompter.Secret("New password: ")
	if err != nil {
		return err
	}
	confirm, err := env.Prompter.Secret("Confirm new password: ")
	if err != nil {
		return err
	}
	if next != confirm {
		return errors.New(login.MsgPasswordMismatch)
	}

	var pe *security.PolicyError
	switch err := auth.ChangePassword(ctx, current, next); {
	case err == nil:
	case errors.Is(err, security.ErrInvalidCredentials):
		return errors.New(components.MsgCurrentIncorrect)
	case errors.Is(err, security.ErrNotAuthenticated):
		return errors.New(components.MsgNotSignedIn)
	case errors.As(err, &pe):
		return pe
	default:
		return err
	}

	if !args.Quiet {
		fmt.Fprintln(env.Out, SuccessStyle.Render("Password updated"))
	}
	return nil
}
