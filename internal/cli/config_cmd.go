// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/verifier-tui/internal/config"
)

func configPath(env *Env) string {
	return filepath.Join(env.ConfigDir, "config.toml")
}

func handleConfig(env *Env, args Args) error {
	p := NewArgParser(args.Raw, "force")
	switch p.Subcommand() {
	case "", "show":
		if args.JSON {
			return writeJSON(env.Out, CmdConfig, env.Config)
		}
		fmt.Fprint(env.Out, env.Config.String())
		return nil

	case "path":
		if args.JSON {
			return writeJSON(env.Out, CmdConfig, map[string]string{"path": configPath(env)})
		}
		fmt.Fprintln(env.Out, configPath(env))
		return nil

	case "init":
		path := configPath(env)
		if _, err := os.Stat(path); err == nil && !p.BoolFlag("force") {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return err
		}
		if !args.Quiet {
			fmt.Fprintln(env.Out, SuccessStyle.Render("Wrote "+path))
		}
		return nil

	default:
		return fmt.Errorf("unknown config subcommand: %s\n\nUsage:\n"+
			"  verifier config show   Print the effective configuration\n"+
			"  verifier config path   Print the config file location\n"+
			"  verifier config init   Write a default config.toml", p.Subcommand())
	}
}
