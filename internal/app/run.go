// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/verifier-tui/internal/clock"
	"github.com/jeranaias/verifier-tui/internal/config"
	"github.com/jeranaias/verifier-tui/internal/ui/styles"
)

// loopDispatcher hands callbacks to a Bubble Tea program as RunMsg.
// Callbacks that fire before the program is attached are held until then.
type loopDispatcher struct {
	mu      sync.Mutex
	program *tea.Program
	held    []func()
}

func (d *loopDispatcher) dispatch(fn func()) {
	d.mu.Lock()
	p := d.program
	if p == nil {
		d.held = append(d.held, fn)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	p.Send(RunMsg(fn))
}

func (d *loopDispatcher) attach(p *tea.Program) {
	d.mu.Lock()
	d.program = p
	held := d.held
	d.held = nil
	d.mu.Unlock()

	if len(held) > 0 {
		// Send blocks until the loop runs
		go func() {
			for _, fn := range held {
				p.Send(RunMsg(fn))
			}
		}()
	}
}

// Run starts the TUI and blocks until it exits. configDir is watched for
// changes to config.toml.
func Run(ctx context.Context, cfg *config.Config, configDir string) error {
	loop := &loopDispatcher{}
	clk := clock.Dispatched(clock.Real(), loop.dispatch)

	svc, err := NewServices(ctx, cfg, clk)
	if err != nil {
		return err
	}
	defer svc.Close()
	logger := svc.Logger

	if id, err := svc.Auth.Rehydrate(ctx); err != nil {
		logger.Warn("could not restore identity", zap.Error(err))
	} else if id.Authenticated {
		logger.Info("restored identity", zap.String("user", id.Username), zap.String("scope", id.Scope.String()))
	}

	theme := styles.NewTheme(cfg.UI.Theme)
	m := New(ctx, svc, theme)
	defer m.Close()

	svc.Monitor.Start()
	defer svc.Monitor.Stop()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.UI.Mouse {
		// all motion so that hovering counts as activity
		opts = append(opts, tea.WithMouseAllMotion())
	}
	p := tea.NewProgram(m, opts...)
	loop.attach(p)

	watcher, err := config.NewWatcher(configDir,
		func(c *config.Config) { p.Send(ConfigReloadedMsg{Config: c}) },
		func(err error) { p.Send(ConfigErrorMsg{Err: err}) },
	)
	if err != nil {
		logger.Warn("config hot reload unavailable", zap.Error(err))
	} else if err := watcher.Start(); err != nil {
		logger.Warn("config hot reload unavailable", zap.Error(err))
		watcher.Close()
	} else {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
