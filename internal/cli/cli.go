// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/jeranaias/verifier-tui/internal/app"
	"github.com/jeranaias/verifier-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdWhoami
	CmdLogout
	CmdPasswd
	CmdUsers
	CmdConfig
	CmdVersion
	CmdHelp
)

var commandNames = map[Command]string{
	CmdTUI:     "tui",
	CmdLogin:   "login",
	CmdWhoami:  "whoami",
	CmdLogout:  "logout",
	CmdPasswd:  "passwd",
	CmdUsers:   "users",
	CmdConfig:  "config",
	CmdVersion: "version",
	CmdHelp:    "help",
}

// String returns the command name.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigDir string
	JSON      bool
	Quiet     bool

	// Subcommand is the first argument after the command, if any.
	Subcommand string

	// Raw holds the arguments after the command name.
	Raw []string
}

const usageText = `verifier - document verification admin console

Usage:
  verifier                        Start the TUI (default)
  verifier tui                    Start the TUI
  verifier login [username]       Sign in from the command line
    --remember                    Keep the sign-in across restarts
    --2fa                         Also ask for a verification code
    --create                      Set the password of a new account
    --forgot                      Send a password reset link
  verifier whoami                 Show the signed-in user
  verifier logout                 Sign out and clear stored identities
  verifier passwd                 Change the password of the signed-in user
  verifier users list             List staff accounts
  verifier users enroll-2fa USER  Enroll a TOTP authenticator (Admin only)
  verifier config show            Print the effective configuration
  verifier config path            Print the config file location
  verifier config init            Write a default config.toml
    --force                       Overwrite an existing file
  verifier version                Show version information
  verifier help                   Show this help

Global Flags:
  --config-dir DIR                Use DIR instead of ~/.verifier
  --json                          Machine-readable output
  -q, --quiet                     Only print errors

Environment:
  VERIFIER_CONFIG_DIR             Config directory
  VERIFIER_SESSION_TIMEOUT_MINUTES, VERIFIER_WARNING_LEAD_MINUTES,
  VERIFIER_DIRECTORY, VERIFIER_DATABASE_PATH, VERIFIER_LOGIN_LATENCY_MS,
  VERIFIER_LOG_LEVEL, VERIFIER_THEME
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args[1:] style arguments.
func Parse(argv []string) (Command, Args, error) {
	remaining, args, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}
	if len(remaining) == 0 {
		return CmdTUI, args, nil
	}

	name := strings.ToLower(remaining[0])
	args.Raw = remaining[1:]
	if len(args.Raw) > 0 && !strings.HasPrefix(args.Raw[0], "-") {
		args.Subcommand = args.Raw[0]
	}

	switch name {
	case "tui":
		return CmdTUI, args, nil
	case "login", "signin":
		return CmdLogin, args, nil
	case "whoami":
		return CmdWhoami, args, nil
	case "logout", "signout":
		return CmdLogout, args, nil
	case "passwd", "password":
		return CmdPasswd, args, nil
	case "users", "user":
		return CmdUsers, args, nil
	case "config":
		return CmdConfig, args, nil
	case "version", "--version", "-v":
		return CmdVersion, args, nil
	case "help", "--help", "-h":
		return CmdHelp, args, nil
	default:
		return CmdHelp, args, fmt.Errorf("unknown command: %s", name)
	}
}

// parseGlobalFlags strips global flags wherever they appear.
func parseGlobalFlags(argv []string) ([]string, Args, error) {
	var args Args
	var remaining []string

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--json":
			args.JSON = true
		case arg == "-q" || arg == "--quiet":
			args.Quiet = true
		case arg == "--config-dir":
			if i+1 >= len(argv) {
				return nil, args, fmt.Errorf("--config-dir requires a directory")
			}
			args.ConfigDir = argv[i+1]
			i++
		case strings.HasPrefix(arg, "--config-dir="):
			args.ConfigDir = strings.TrimPrefix(arg, "--config-dir=")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args, nil
}

// =============================================================================
// EXECUTION
// =============================================================================

// Env is what a command runs against.
type Env struct {
	Config    *config.Config
	ConfigDir string
	Out       io.Writer
	Prompter  Prompter

	// Services is built lazily by commands that need it.
	Services *app.Services
}

// Execute runs a non-TUI command.
func Execute(ctx context.Context, cmd Command, args Args, env *Env) error {
	switch cmd {
	case CmdHelp:
		PrintUsage(env.Out)
		return nil
	case CmdVersion:
		return handleVersion(env, args)
	case CmdConfig:
		return handleConfig(env, args)
	}

	if env.Services == nil {
		svc, err := app.NewServices(ctx, env.Config, nil)
		if err != nil {
			return err
		}
		defer svc.Close()
		env.Services = svc
	}
	if _, err := env.Services.Auth.Rehydrate(ctx); err != nil {
		return err
	}

	switch cmd {
	case CmdLogin:
		return handleLogin(ctx, env, args)
	case CmdWhoami:
		return handleWhoami(env, args)
	case CmdLogout:
		return handleLogout(env, args)
	case CmdPasswd:
		return handlePasswd(ctx, env, args)
	case CmdUsers:
		return handleUsers(ctx, env, args)
	default:
		return fmt.Errorf("%s cannot run outside the TUI", cmd)
	}
}

// VersionInfo is the version output.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func handleVersion(env *Env, args Args) error {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if args.JSON {
		return writeJSON(env.Out, CmdVersion, info)
	}
	fmt.Fprintf(env.Out, "verifier %s\n", info.Version)
	fmt.Fprintf(env.Out, "  Commit:   %s\n", info.GitCommit)
	fmt.Fprintf(env.Out, "  Built:    %s\n", info.BuildDate)
	fmt.Fprintf(env.Out, "  Go:       %s\n", info.GoVersion)
	fmt.Fprintf(env.Out, "  Platform: %s\n", info.Platform)
	return nil
}
