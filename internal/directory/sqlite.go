// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteDirectory stores accounts in a SQLite database.
type SQLiteDirectory struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite opens (creating if needed) the directory database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteDirectory, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer; also keeps a :memory: database on a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	d := &SQLiteDirectory{
		db:   db,
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}
	if err := d.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if path != ":memory:" {
		_ = os.Chmod(path, 0600)
	}
	return d, nil
}

func (d *SQLiteDirectory) initSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, Schema); err != nil {
		return err
	}

	var stored string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'schema_version'`).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = d.db.ExecContext(ctx,
			`INSERT INTO metadata (key, value) VALUES ('schema_version', ?)`,
			strconv.Itoa(SchemaVersion))
		return err
	case err != nil:
		return err
	}

	if v, convErr := strconv.Atoi(stored); convErr != nil || v > SchemaVersion {
		return fmt.Errorf("database schema version %q is newer than supported (%d)", stored, SchemaVersion)
	}
	return nil
}

// Path returns the database path.
func (d *SQLiteDirectory) Path() string {
	return d.path
}

const accountColumns = `username, password_hash, role, totp_secret, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var (
		a                Account
		role             string
		created, updated int64
	)
	if err := row.Scan(&a.Username, &a.PasswordHash, &role, &a.TOTPSecret, &created, &updated); err != nil {
		return Account{}, err
	}
	a.Role = Role(role)
	a.CreatedAt = time.Unix(created, 0).UTC()
	a.UpdatedAt = time.Unix(updated, 0).UTC()
	return a, nil
}

func (d *SQLiteDirectory) Lookup(ctx context.Context, username string) (Account, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("lookup account: %w", err)
	}
	return a, nil
}

func (d *SQLiteDirectory) List(ctx context.Context) ([]Account, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (d *SQLiteDirectory) Insert(ctx context.Context, acct Account) error {
	now := d.now().Unix()
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		acct.Username, acct.PasswordHash, string(acct.Role), acct.TOTPSecret, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (d *SQLiteDirectory) ClaimPassword(ctx context.Context, username, hash string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ?
		 WHERE username = ? AND password_hash = ''`,
		hash, d.now().Unix(), username)
	if err != nil {
		return fmt.Errorf("claim password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	// nothing updated: either missing or already claimed
	if _, err := d.Lookup(ctx, username); err != nil {
		return err
	}
	return ErrPasswordAlreadySet
}

func (d *SQLiteDirectory) UpdatePassword(ctx context.Context, username, hash string) error {
	return d.updateColumn(ctx, "password_hash", username, hash)
}

func (d *SQLiteDirectory) SetTOTPSecret(ctx context.Context, username, secret string) error {
	return d.updateColumn(ctx, "totp_secret", username, secret)
}

// updateColumn sets one whitelisted column of an existing account.
func (d *SQLiteDirectory) updateColumn(ctx context.Context, column, username, value string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE accounts SET `+column+` = ?, updated_at = ? WHERE username = ?`,
		value, d.now().Unix(), username)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Close closes the database.
func (d *SQLiteDirectory) Close() error {
	return d.db.Close()
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY")
}
