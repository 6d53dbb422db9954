package formsync

import (
	"fmt"
	"path/filepath"

	"github.com/goliatone/go-formsync/pkg/store"
)

// Backend groups the three Value Store namespaces used by the engine. The
// stores may share one physical backend; no cross-namespace transaction is
// assumed.
type Backend struct {
	Configs store.Store[FormConfig]
	States  store.Store[FormState]
	Globals store.Store[GlobalValue]
}

func (b Backend) validate() error {
	switch {
	case b.Configs == nil:
		return fmt.Errorf("formsync: config store is required")
	case b.States == nil:
		return fmt.Errorf("formsync: state store is required")
	case b.Globals == nil:
		return fmt.Errorf("formsync: global store is required")
	}
	return nil
}

// NewMemoryBackend returns a Backend held entirely in memory.
func NewMemoryBackend() Backend {
	return Backend{
		Configs: store.NewMemoryStore[FormConfig](),
		States:  store.NewMemoryStore[FormState](),
		Globals: store.NewMemoryStore[GlobalValue](),
	}
}

// NewFileBackend returns a Backend persisting JSON documents under dir.
func NewFileBackend(dir string) (Backend, error) {
	configs, err := store.NewFileStore[FormConfig](filepath.Clean(dir))
	if err != nil {
		return Backend{}, err
	}
	states, err := store.NewFileStore[FormState](filepath.Clean(dir))
	if err != nil {
		return Backend{}, err
	}
	globals, err := store.NewFileStore[GlobalValue](filepath.Clean(dir))
	if err != nil {
		return Backend{}, err
	}
	return Backend{Configs: configs, States: states, Globals: globals}, nil
}
