package watch

import (
	"fmt"
	"time"

	"github.com/qepting91/frontpage-watch/internal/disposition"
	"github.com/qepting91/frontpage-watch/internal/logger"
)

// StageError names the stage that aborted a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Report summarises a run.
type Report struct {
	Started             time.Time
	Duration            time.Duration
	CredentialRefreshed bool

	Tracked    int
	Pages      int
	Fetched    int
	Duplicates int

	New        int
	Updated    int
	Removed    int
	Unresolved int

	Classes map[disposition.Class]int
	Outcome disposition.Outcome
}

// Fields renders the report as log fields.
func (r Report) Fields() []logger.Field {
	fields := []logger.Field{
		logger.Duration("duration", r.Duration),
		logger.Bool("credential_refreshed", r.CredentialRefreshed),
		logger.Int("pages", r.Pages),
		logger.Int("fetched", r.Fetched),
		logger.Int("new", r.New),
		logger.Int("updated", r.Updated),
		logger.Int("removed", r.Removed),
		logger.Int("deleted", r.Outcome.Deleted),
		logger.Int("kept", r.Outcome.Kept),
		logger.Int("submitted", r.Outcome.Submitted),
		logger.Int("submit_failed", r.Outcome.SubmitFailed),
	}
	for _, c := range disposition.Classes {
		if n := r.Classes[c]; n > 0 {
			fields = append(fields, logger.Int("class_"+c.String(), n))
		}
	}
	return fields
}
