package models

import (
	"time"

	"github.com/google/uuid"
)

// RollbackArchive is an immutable snapshot of a run's statements and lines
// taken before the rollback deletes them. Archives are write-once; nothing
// in the engine ever mutates one after creation.
type RollbackArchive struct {
	ID          uuid.UUID              `db:"id"`
	RunID       int64                  `db:"run_id"`
	Reason      string                 `db:"reason"`
	Forced      bool                   `db:"forced"`
	RequestedBy string                 `db:"requested_by"`
	Snapshot    *RunSnapshot           `db:"snapshot"`
	Extra       map[string]interface{} `db:"extra"`
	CreatedAt   time.Time              `db:"created_at"`
}

// RunSnapshot is the archived pre-rollback state of a run
type RunSnapshot struct {
	Run        *RoyaltyRun         `json:"run"`
	Statements []*RoyaltyStatement `json:"statements"`
	Lines      []*RoyaltyLine      `json:"lines"`
}
