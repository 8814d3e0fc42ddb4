// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jeranaias/verifier-tui/internal/util"
)

// fileFormatVersion is bumped when the on-disk layout changes.
const fileFormatVersion = 1

type fileEnvelope struct {
	Version int               `json:"version"`
	Values  map[string]string `json:"values"`
	MAC     string            `json:"mac,omitempty"`
}

// FileStore is a Store backed by one JSON file. Every write replaces the
// file atomically with 0600 permissions. An empty store is represented by
// the absence of the file.
type FileStore struct {
	path   string
	sealer *Sealer
	mu     sync.Mutex
}

// NewFileStore returns a store at path. When sealer is non-nil the values
// are authenticated and a mismatch surfaces as ErrTampered.
func NewFileStore(path string, sealer *Sealer) *FileStore {
	return &FileStore{path: path, sealer: sealer}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readLocked()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileStore) Set(key, value string) error {
	return f.SetAll(map[string]string{key: value})
}

func (f *FileStore) SetAll(pairs map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readLocked()
	if errors.Is(err, ErrTampered) {
		// a tampered file is replaced rather than merged
		values = make(map[string]string)
	} else if err != nil {
		return err
	}
	for k, v := range pairs {
		values[k] = v
	}
	return f.writeLocked(values)
}

func (f *FileStore) Delete(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readLocked()
	if errors.Is(err, ErrTampered) {
		return util.RemoveIfExists(f.path)
	} else if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := values[k]; ok {
			delete(values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return f.writeLocked(values)
}

func (f *FileStore) Keys() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.readLocked()
	if err != nil {
		return nil, err
	}
	return sortedKeys(values), nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return util.RemoveIfExists(f.path)
}

func (f *FileStore) readLocked() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %s is not valid JSON", ErrTampered, f.path)
	}
	if env.Version != fileFormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrTampered, env.Version)
	}
	if env.Values == nil {
		env.Values = make(map[string]string)
	}
	if f.sealer != nil && !f.sealer.Verify(env.Values, env.MAC) {
		return nil, ErrTampered
	}
	return env.Values, nil
}

func (f *FileStore) writeLocked(values map[string]string) error {
	if len(values) == 0 {
		return util.RemoveIfExists(f.path)
	}
	env := fileEnvelope{Version: fileFormatVersion, Values: values}
	if f.sealer != nil {
		env.MAC = f.sealer.Seal(values)
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	return util.WriteFileAtomic(f.path, data, 0600)
}
