package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore persists one JSON document per record under
// `<root>/<namespace>/<id>.json`. Writes go through a temp file and rename so
// readers never observe a partial document.
type FileStore[T any] struct {
	root string
	mu   sync.Mutex
	now  func() time.Time
}

type fileEnvelope[T any] struct {
	Meta   Meta `json:"meta"`
	Record T    `json:"record"`
}

var (
	_ Store[any]   = (*FileStore[any])(nil)
	_ Creator[any] = (*FileStore[any])(nil)
)

// NewFileStore returns a store rooted at dir. The directory is created lazily
// on first write.
func NewFileStore[T any](dir string) (*FileStore[T], error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("store: file store root is required")
	}
	return &FileStore[T]{root: dir, now: time.Now}, nil
}

// Root returns the directory backing the store.
func (s *FileStore[T]) Root() string {
	return s.root
}

func (s *FileStore[T]) Load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	path, err := s.path(ref)
	if err != nil {
		return zero, Meta{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return zero, Meta{}, false, err
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return zero, Meta{}, false, nil
	}
	if err != nil {
		return zero, Meta{}, false, fmt.Errorf("store: read %s: %w", ref, err)
	}

	var envelope fileEnvelope[T]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return zero, Meta{}, false, fmt.Errorf("store: decode %s: %w", ref, err)
	}
	return envelope.Record, envelope.Meta, true, nil
}

func (s *FileStore[T]) Save(ctx context.Context, ref Ref, record T, meta Meta) (Meta, error) {
	path, err := s.path(ref)
	if err != nil {
		return Meta{}, err
	}
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stamped := stampMeta(meta, s.now)
	if err := s.write(path, fileEnvelope[T]{Meta: stamped, Record: record}); err != nil {
		return Meta{}, fmt.Errorf("store: write %s: %w", ref, err)
	}
	return cloneMeta(stamped), nil
}

func (s *FileStore[T]) Create(ctx context.Context, ref Ref, record T, meta Meta) (bool, Meta, error) {
	path, err := s.path(ref)
	if err != nil {
		return false, Meta{}, err
	}
	if err := ctx.Err(); err != nil {
		return false, Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stamped := stampMeta(meta, s.now)
	tmpName, err := s.stage(path, fileEnvelope[T]{Meta: stamped, Record: record})
	if err != nil {
		return false, Meta{}, fmt.Errorf("store: create %s: %w", ref, err)
	}
	defer os.Remove(tmpName)

	// Link fails when the target exists, which makes publishing a put-if-absent.
	err = os.Link(tmpName, path)
	if errors.Is(err, fs.ErrExist) {
		_, existing, _, loadErr := s.Load(ctx, ref)
		if loadErr != nil {
			return false, Meta{}, loadErr
		}
		return false, existing, nil
	}
	if err != nil {
		return false, Meta{}, fmt.Errorf("store: create %s: %w", ref, err)
	}
	return true, cloneMeta(stamped), nil
}

func (s *FileStore[T]) path(ref Ref) (string, error) {
	if _, err := ref.Identifier(); err != nil {
		return "", err
	}
	name := ref.ID
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: id %q is not a valid file name", ErrInvalidRef, name)
	}
	return filepath.Join(s.root, string(ref.Namespace), name+".json"), nil
}

func (s *FileStore[T]) write(path string, envelope fileEnvelope[T]) error {
	tmpName, err := s.stage(path, envelope)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// stage writes envelope to a temp file next to path and returns its name.
func (s *FileStore[T]) stage(path string, envelope fileEnvelope[T]) (string, error) {
	payload, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return tmpName, nil
}
