// verifier - terminal admin console for the document verification service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/verifier-tui/internal/app"
	"github.com/jeranaias/verifier-tui/internal/cli"
	"github.com/jeranaias/verifier-tui/internal/config"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args, err := cli.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cmd, args)
	stop()

	if err != nil {
		if args.JSON {
			cli.NewJSONErrorResponse(cmd, err).Write(os.Stdout)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd cli.Command, args cli.Args) error {
	dir := args.ConfigDir
	if dir == "" {
		d, err := config.ConfigDir()
		if err != nil {
			return err
		}
		dir = d
	}

	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return err
	}

	if cmd == cli.CmdTUI {
		return app.Run(ctx, cfg, dir)
	}

	env := &cli.Env{Config: cfg, ConfigDir: dir, Out: os.Stdout}
	if cmd == cli.CmdLogin || cmd == cli.CmdPasswd {
		p := cli.NewTerminalPrompter()
		defer p.Close()
		env.Prompter = p
	}
	return cli.Execute(ctx, cmd, args, env)
}
