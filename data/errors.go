package data

import (
	"errors"
	"sync"
)

// Standard errors shared by the provider, the mapping stores and the fetcher.
var (
	// Resolution errors
	ErrNotFound = errors.New("feedtree: item not handled by this provider")

	// Remote feed errors
	ErrRemoteUnavailable = errors.New("feedtree: remote feed unavailable")

	// Write path errors
	ErrReadOnly = errors.New("feedtree: provider is read-only")

	// Namespace errors
	ErrInvalidNamespace = errors.New("feedtree: invalid namespace")
	ErrNamespaceInUse   = errors.New("feedtree: namespace already registered")
	ErrTemplateInUse    = errors.New("feedtree: root template already registered")

	// Address errors
	ErrMalformedAddress     = errors.New("feedtree: malformed store address")
	ErrUnknownAddressScheme = errors.New("feedtree: unknown store address scheme")

	// Identifier errors
	ErrInvalidID = errors.New("feedtree: invalid item id")
)

// Errors collects errors from multi-step cleanups.
type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}
