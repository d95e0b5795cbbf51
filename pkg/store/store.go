// Package store provides file storage rooted at a story workspace directory,
// plus an optional Azure Blob archive sink for finished artifacts.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// System manages workspace file operations. Keys are forward-slash relative
// paths beneath the workspace root; parent directories are created on write.
type System interface {
	// Path returns the absolute filesystem path for a key.
	Path(key string) string
	// Exists reports whether a file exists at the given key.
	Exists(key string) bool
	// ReadBinary returns the file contents at the given key.
	// Returns ErrNotFound if the file does not exist.
	ReadBinary(key string) ([]byte, error)
	// WriteBinary writes data to the given key, creating parent directories.
	WriteBinary(key string, data []byte) error
	// ReadText returns the file contents at the given key as a string.
	ReadText(key string) (string, error)
	// WriteText writes text to the given key, creating parent directories.
	WriteText(key, text string) error
	// Rename moves a file from one key to another within the workspace.
	Rename(oldKey, newKey string) error
	// Delete removes the file at the given key. Returns ErrNotFound if absent.
	Delete(key string) error
}

type local struct {
	root   string
	logger *slog.Logger
}

// New creates a workspace store rooted at the given directory,
// creating the directory if it does not exist.
func New(root string, logger *slog.Logger) (System, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}

	return &local{
		root:   abs,
		logger: logger.With("system", "store"),
	}, nil
}

func (l *local) Path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

func (l *local) Exists(key string) bool {
	if err := validateKey(key); err != nil {
		return false
	}

	info, err := os.Stat(l.Path(key))
	return err == nil && !info.IsDir()
}

func (l *local) ReadBinary(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return data, nil
}

func (l *local) WriteBinary(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	path := l.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
}

func (l *local) ReadText(key string) (string, error) {
	data, err := l.ReadBinary(key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (l *local) WriteText(key, text string) error {
	return l.WriteBinary(key, []byte(text))
}

func (l *local) Rename(oldKey, newKey string) error {
	if err := validateKey(oldKey); err != nil {
		return err
	}
	if err := validateKey(newKey); err != nil {
		return err
	}

	newPath := l.Path(newKey)
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", newKey, err)
	}

	if err := os.Rename(l.Path(oldKey), newPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, oldKey)
		}
		return fmt.Errorf("rename %s to %s: %w", oldKey, newKey, err)
	}

	return nil
}

func (l *local) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := os.Remove(l.Path(key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if filepath.IsAbs(key) || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
