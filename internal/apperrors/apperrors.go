package apperrors

import (
	"errors"
	"fmt"

	"github.com/teamlens/teamlens/internal/domain"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidRequest = errors.New("invalid request body")
	ErrInvalidSource  = errors.New(`invalid source, use "github" or "jira"`)

	// ErrSyncInProgress signals that a sync for the source is already
	// running. Callers treat it as a no-op, never as a failure.
	ErrSyncInProgress = errors.New("sync already in progress")
)

// SourceError pairs a sync failure with the source it came from, so a
// multi-source run can report per-source errors without aborting the rest.
type SourceError struct {
	Source  domain.Source `json:"source"`
	Message string        `json:"message"`
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}
