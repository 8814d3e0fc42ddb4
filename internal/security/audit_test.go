// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.log")
	l, err := NewAuditLogger(path)
	require.NoError(t, err)

	l.LogEvent(EventLoginSuccess, "abcd-1234", "test", true, map[string]string{"scope": "session"})
	l.LogEvent(EventLoginFailure, "", MaskIdentifier("test"), false, nil)
	require.NoError(t, l.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 2)

	assert.Equal(t, EventLoginSuccess, lines[0]["message"])
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "test", lines[0]["user"])
	assert.Equal(t, map[string]any{"scope": "session"}, lines[0]["metadata"])

	assert.Equal(t, "warn", lines[1]["level"])
	assert.True(t, strings.HasPrefix(lines[1]["user"].(string), "hash:"))
}

func TestAuditLogger_Disabled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewAuditLoggerWithCore(core)

	l.SetEnabled(false)
	assert.False(t, l.IsEnabled())
	l.LogEvent(EventLogout, "", "test", true, nil)
	assert.Zero(t, logs.Len())

	l.SetEnabled(true)
	l.LogEvent(EventLogout, "", "test", true, nil)
	assert.Equal(t, 1, logs.Len())
}

func TestAuditLogger_NilIsSafe(t *testing.T) {
	var l *AuditLogger
	assert.NotPanics(t, func() {
		l.LogEvent(EventLogout, "", "test", true, nil)
		l.SetEnabled(true)
		_ = l.Close()
	})
	assert.False(t, l.IsEnabled())
	assert.Empty(t, l.Path())
}

func TestMaskIdentifier(t *testing.T) {
	a := MaskIdentifier("admin@verify.com")
	assert.Equal(t, a, MaskIdentifier("admin@verify.com"))
	assert.NotEqual(t, a, MaskIdentifier("Admin@verify.com"))
	assert.Len(t, a, len("hash:")+12)
	assert.NotContains(t, a, "admin")
}

func TestShortSessionID(t *testing.T) {
	assert.Equal(t, "abc", shortSessionID("abc"))
	assert.Equal(t, "0123...cdef", shortSessionID("0123456789abcdef"))
}
