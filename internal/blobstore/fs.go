package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FS stores each blob as one JSON envelope file under a root directory.
//
// Layout: <root>/<key> where key path separators become directories. Writes
// go through a temp file and rename, so readers never observe partial blobs.
type FS struct {
	root string
}

type fsEnvelope struct {
	Value     json.RawMessage   `json:"value"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewFS creates a filesystem store rooted at dir.
func NewFS(dir string) (*FS, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("blobstore: fs root dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &FS{root: dir}, nil
}

func (s *FS) path(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("blobstore: invalid key %q", key)
	}
	return filepath.Join(s.root, cleaned), nil
}

func (s *FS) Get(ctx context.Context, key string) (json.RawMessage, error) {
	env, err := s.read(key)
	if err != nil || env == nil {
		return nil, err
	}
	return env.Value, nil
}

func (s *FS) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	env, err := s.read(key)
	if err != nil || env == nil {
		return nil, err
	}
	return &ObjectInfo{Key: key, Metadata: env.Metadata, UpdatedAt: env.UpdatedAt}, nil
}

func (s *FS) read(key string) (*fsEnvelope, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	var env fsEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("parse blob %s: %w", key, err)
	}
	return &env, nil
}

func (s *FS) Set(ctx context.Context, key string, value json.RawMessage, metadata map[string]string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	b, err := json.Marshal(fsEnvelope{Value: value, Metadata: metadata, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal blob %s: %w", key, err)
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".blob.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp blob: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename blob: %w", err)
	}
	return nil
}

func (s *FS) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".blob.tmp.") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FS) Close() error { return nil }
