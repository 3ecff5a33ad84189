package recompute

import "fmt"

// NotFoundError reports a property id or entity that does not exist.
type NotFoundError struct {
	PropertyID int64
	Entity     string
}

func (e *NotFoundError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("entity %q has no properties", e.Entity)
	}
	return fmt.Sprintf("property %d not found", e.PropertyID)
}

// PersistenceError reports a failed write-back. The metrics returned alongside
// it are complete; only storing them failed.
type PersistenceError struct {
	PropertyID int64
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist metrics for property %d: %v", e.PropertyID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// BatchItemError is one failed property of a batch recompute.
type BatchItemError struct {
	PropertyID int64
	Err        error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("property %d: %v", e.PropertyID, e.Err)
}

func (e *BatchItemError) Unwrap() error {
	return e.Err
}

func (e *BatchItemError) MarshalText() ([]byte, error) {
	return []byte(e.Error()), nil
}
