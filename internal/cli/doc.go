// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the verifier command line and runs the commands that
// do not need the TUI.
//
// # Commands
//
//   - login, whoami, logout, passwd: the sign-in lifecycle from a shell
//   - users list, users enroll-2fa: staff accounts
//   - config show, path, init: configuration files
//   - version, help
//
// Commands share the service graph of the TUI (app.NewServices), so a
// sign-in made here is restored when the TUI starts and the other way
// round. The login command drives login.Flow, the same state machine as
// the TUI form.
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	if cmd == cli.CmdTUI {
//	    return app.Run(ctx, cfg, dir)
//	}
//	return cli.Execute(ctx, cmd, args, &cli.Env{Config: cfg, ConfigDir: dir,
//	    Out: os.Stdout, Prompter: cli.NewTerminalPrompter()})
//
// Every command accepts --json.
package cli
