// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// ErrAborted is returned when the user cancels a prompt with Ctrl+C.
var ErrAborted = errors.New("aborted")

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// =============================================================================
// PROMPTS
// =============================================================================

// Prompter reads answers from the user.
type Prompter interface {
	// Prompt reads a visible line.
	Prompt(label string) (string, error)
	// Secret reads a line without echo.
	Secret(label string) (string, error)
	Close() error
}

// TerminalPrompter prompts on the controlling terminal with line editing.
// When stdin is not a terminal, liner reads plain lines and secrets are
// read the same way, which lets scripts pipe answers in.
type TerminalPrompter struct {
	line *liner.State
	tty  bool
}

// NewTerminalPrompter puts the terminal under liner control until Close.
func NewTerminalPrompter() *TerminalPrompter {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &TerminalPrompter{line: line, tty: IsTTY() && IsStdoutTTY()}
}

func (p *TerminalPrompter) Prompt(label string) (string, error) {
	s, err := p.line.Prompt(label)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrAborted
	}
	return strings.TrimSpace(s), err
}

func (p *TerminalPrompter) Secret(label string) (string, error) {
	var (
		s   string
		err error
	)
	if p.tty {
		s, err = p.line.PasswordPrompt(label)
	} else {
		s, err = p.line.Prompt(label)
	}
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrAborted
	}
	// passwords keep inner spaces but not the line ending
	return strings.TrimRight(s, "\r\n"), err
}

// Close restores the terminal.
func (p *TerminalPrompter) Close() error {
	return p.line.Close()
}
