package hours

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing user or project reference.
	ErrNotFound = errors.New("not found")
	// ErrNoAuthorizedProjects reports a coder whose team memberships yield no projects.
	ErrNoAuthorizedProjects = errors.New("coder has no authorized projects")
	// ErrAtLeastOneTagRequired reports an empty tag set after normalization.
	ErrAtLeastOneTagRequired = errors.New("at least one tag is required")
	// ErrProjectRequired reports a row with neither an explicit project nor an
	// issue-derived one.
	ErrProjectRequired = errors.New("project is required")
	// ErrProjectMismatch reports disagreement between the explicit project and
	// the project derived from the issue.
	ErrProjectMismatch = errors.New("explicit project and issue project differ")
	// ErrNotAllowed reports a project outside the coder's authorized set.
	ErrNotAllowed = errors.New("coder is not authorized for project")
)

// ParseError reports a malformed field value in an imported row.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
