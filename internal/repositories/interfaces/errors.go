package interfaces

import "errors"

var (
	// ErrNotFound is returned when no document matches the id at all.
	ErrNotFound = errors.New("document not found")

	// ErrConditionFailed is returned when a conditional update matched no
	// document: either the id is unknown or the predicate no longer holds.
	// Callers re-fetch to distinguish the two and build a typed conflict.
	ErrConditionFailed = errors.New("conditional update predicate failed")
)
