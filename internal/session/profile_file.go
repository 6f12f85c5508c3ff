package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pribylovaa/dental-clinic/internal/models"
)

// FileProfileStore хранит профиль JSON-файлом с правами 0600.
// Запись атомарная: временный файл и rename.
type FileProfileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileProfileStore(path string) *FileProfileStore {
	return &FileProfileStore{path: path}
}

func (f *FileProfileStore) Load(context.Context) (*models.UserProfile, error) {
	const op = "session.FileProfileStore.Load"

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%s: decode %q: %w", op, f.path, err)
	}

	return &p, nil
}

func (f *FileProfileStore) Save(_ context.Context, p models.UserProfile) error {
	const op = "session.FileProfileStore.Save"

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := writeFileAtomic(f.path, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (f *FileProfileStore) Clear(context.Context) error {
	const op = "session.FileProfileStore.Clear"

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Probe создаёт каталог и пробный файл рядом с профилем.
func (f *FileProfileStore) Probe(context.Context) error {
	const op = "session.FileProfileStore.Probe"

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	name := tmp.Name()
	_ = tmp.Close()

	if err := os.Remove(name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// writeFileAtomic пишет data во временный файл в том же каталоге и переименовывает его.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}

	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}

	if err := os.Rename(name, path); err != nil {
		cleanup()
		return err
	}

	return nil
}
