// Package storage holds document bytes. Only the returned URL is tracked by
// the rest of the system; content is opaque here.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LocalDisk writes files beneath a root directory and serves them under baseURL.
type LocalDisk struct {
	root    string
	baseURL string
}

// NewLocalDisk creates the root directory if needed.
func NewLocalDisk(root, baseURL string) (*LocalDisk, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalDisk{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Put writes body to key via a temp file and rename so readers never see a
// partial file.
func (d *LocalDisk) Put(ctx context.Context, key, _ string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	path := filepath.Join(d.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename file: %w", err)
	}
	return d.baseURL + "/" + clean, nil
}

// Root is the directory served under the base URL.
func (d *LocalDisk) Root() string {
	return d.root
}

// Object is a stored file held by Memory.
type Object struct {
	ContentType string
	Data        []byte
}

// Memory keeps objects in a map. Used in tests and when no storage dir is configured.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{objects: make(map[string]Object), baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (m *Memory) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	m.mu.Lock()
	m.objects[clean] = Object{ContentType: contentType, Data: buf.Bytes()}
	m.mu.Unlock()
	return m.baseURL + "/" + clean, nil
}

// Get returns a stored object by key.
func (m *Memory) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Len reports the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func cleanKey(key string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean("/" + key))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("storage key is required")
	}
	return clean, nil
}
