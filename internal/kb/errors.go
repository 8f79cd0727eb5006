// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"errors"
	"fmt"
)

// Integrity violations and expected read-path conditions. Callers test
// these with errors.Is; they are never retried by the store.
var (
	// ErrDuplicateIdentifier reports an entity id reused during loading,
	// or a second article for an entity that already has one.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrDuplicateArticleID reports an article id already claimed by a
	// different entity.
	ErrDuplicateArticleID = errors.New("duplicate article identifier")

	// ErrUnknownEntity reports a write referencing an entity id that was
	// never loaded.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrNotFound reports a lookup of an entity id that does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrNoArticle reports that a known entity has no associated article.
	ErrNoArticle = errors.New("entity has no article")

	// ErrPhaseViolation reports an operation issued outside the load
	// phase that permits it.
	ErrPhaseViolation = errors.New("operation not permitted in current load phase")
)

// StorageError wraps an engine-level failure (I/O error, corruption,
// failed transaction). A StorageError during ingestion aborts the whole
// current batch; positional alignment cannot be verified after a partial
// write.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
