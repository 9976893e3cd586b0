package backup

import (
	"errors"
	"fmt"
)

// ErrBackupInProgress is returned to a trigger that lost the in-flight race.
// The losing invocation has no side effects; it is not queued or retried.
var ErrBackupInProgress = errors.New("backup already in progress")

// ErrNotScheduled is returned when an operation needs an armed scheduler.
var ErrNotScheduled = errors.New("auto backup is not scheduled")

// ErrInsufficientSpace is the cause inside a WriteError when the preflight
// check finds the volume too full to hold the payload.
var ErrInsufficientSpace = errors.New("insufficient disk space")

// SerializationError reports that the snapshot document could not be encoded.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string { return fmt.Sprintf("serialize snapshot: %v", e.Err) }
func (e *SerializationError) Unwrap() error { return e.Err }

// WriteError reports a disk-level failure (no space, permission denied). The
// temp file has already been cleaned up when this is returned.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write backup (%s): %v", e.Op, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// EvictionError reports a failed artifact deletion during retention. A file
// that is already gone is not an EvictionError; the goal state was reached.
type EvictionError struct {
	Path string
	Err  error
}

func (e *EvictionError) Error() string { return fmt.Sprintf("evict %s: %v", e.Path, e.Err) }
func (e *EvictionError) Unwrap() error { return e.Err }
