package errors

import "errors"

var (
	// ErrNotFound is returned for a missing pathway/step/requirement/version.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a pass-through from the identity layer.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrCycleDetected rejects a parent move or prerequisite edge that
	// would close a cycle in the step graph.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrPrerequisiteNotMet rejects a step completion whose gating rule
	// is not yet satisfied.
	ErrPrerequisiteNotMet = errors.New("prerequisite not met")
	// ErrVersionConflict rejects mutation of a frozen pathway version.
	ErrVersionConflict = errors.New("version conflict")
)
