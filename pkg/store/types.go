package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRef reports a Ref that cannot be mapped onto a storage key.
var ErrInvalidRef = errors.New("store: invalid ref")

// Namespace partitions records by kind.
type Namespace string

const (
	NamespaceConfig Namespace = "config"
	NamespaceState  Namespace = "state"
	NamespaceGlobal Namespace = "global"
)

// Valid reports whether n is one of the known namespaces.
func (n Namespace) Valid() bool {
	switch n {
	case NamespaceConfig, NamespaceState, NamespaceGlobal:
		return true
	default:
		return false
	}
}

// Ref identifies one persisted record.
type Ref struct {
	Namespace Namespace
	ID        string
}

// ConfigRef, StateRef and GlobalRef are shorthands for the three namespaces.
func ConfigRef(id string) Ref { return Ref{Namespace: NamespaceConfig, ID: id} }
func StateRef(id string) Ref  { return Ref{Namespace: NamespaceState, ID: id} }
func GlobalRef(id string) Ref { return Ref{Namespace: NamespaceGlobal, ID: id} }

// Identifier returns the canonical storage key for r.
func (r Ref) Identifier() (string, error) {
	if !r.Namespace.Valid() {
		return "", fmt.Errorf("%w: unsupported namespace %q", ErrInvalidRef, r.Namespace)
	}
	if strings.TrimSpace(r.ID) == "" {
		return "", fmt.Errorf("%w: missing id for namespace %q", ErrInvalidRef, r.Namespace)
	}
	return fmt.Sprintf("%s/%s", r.Namespace, r.ID), nil
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Namespace, r.ID)
}

// Meta is storage-owned metadata used for audit and change tracking.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one record for a single reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (record T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, record T, meta Meta) (Meta, error)
}

// Creator writes record only when ref is absent. created is false when a
// record already existed; the existing record is left untouched.
type Creator[T any] interface {
	Create(ctx context.Context, ref Ref, record T, meta Meta) (created bool, saved Meta, err error)
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
