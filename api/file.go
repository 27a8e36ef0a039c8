// Package api contains the file handling shared by the tracefit
// configuration kinds.
package api

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/macropower/tracefit/pkg/yaml"
)

// AppName is the directory name used under the user's config directory.
const AppName = "tracefit"

var (
	ErrIsDir         = errors.New("path is a directory")
	ErrUnknownFileOp = errors.New("unknown file state")
)

// GetConfigPath returns the path to a file in the user's tracefit config
// directory. $XDG_CONFIG_HOME is used when set, then ~/.config, and finally
// a temp directory.
func GetConfigPath(filename string) string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, AppName, filename)
	}

	usrHome, err := os.UserHomeDir()
	if err == nil && usrHome != "" {
		return filepath.Join(usrHome, ".config", AppName, filename)
	}

	tmpPath := filepath.Join(os.TempDir(), AppName, filename)

	slog.Warn("could not determine user config directory, using temp path",
		slog.String("path", tmpPath),
		slog.Any("err", err),
	)

	return tmpPath
}

// exists reports whether path is a regular file. Directories and other
// non-regular files are errors.
func exists(path string) (bool, error) {
	info, err := os.Stat(path)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat file: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("%s: %w", path, ErrIsDir)
	case !info.Mode().IsRegular():
		return false, fmt.Errorf("%s: %w", path, ErrUnknownFileOp)
	}

	return true, nil
}

// ReadFile reads a regular file.
func ReadFile(path string) ([]byte, error) {
	ok, err := exists(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("stat file: %w", fs.ErrNotExist)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Reads user-provided config paths.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// MarshalYAML serializes an object to YAML bytes.
func MarshalYAML(obj any) ([]byte, error) {
	b, err := yaml.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	return b, nil
}

// WriteIfNotExists writes data to path unless a file is already there.
func WriteIfNotExists(path string, data []byte) error {
	ok, err := exists(path)
	if err != nil || ok {
		return err
	}

	return write(path, data)
}

// WriteDefaultFile writes default content to a path. With force, an
// existing file is renamed to a timestamped backup first. kind names the
// file in logs and errors.
func WriteDefaultFile(path string, data []byte, force bool, kind string) error {
	ok, err := exists(path)
	if err != nil {
		return err
	}

	log := slog.With(slog.String("type", kind), slog.String("path", path))

	if ok && !force {
		log.Debug("file already exists, skipping write")

		return nil
	}

	if ok {
		backupPath := fmt.Sprintf("%s.%d.old", path, time.Now().UnixNano())
		log.Info("backing up existing file", slog.String("backup", backupPath))

		err = os.Rename(path, backupPath)
		if err != nil {
			return fmt.Errorf("back up %s file: %w", kind, err)
		}
	}

	log.Info("write default file")

	err = write(path, data)
	if err != nil {
		return fmt.Errorf("write %s file: %w", kind, err)
	}

	return nil
}

func write(path string, data []byte) error {
	err := os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
