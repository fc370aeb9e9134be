package casesync

import (
	"errors"
	"fmt"
)

// Sync steps named in TableError.
const (
	StepMetadata = "metadata"
	StepVersion  = "version"
	StepDelete   = "delete"
	StepWrite    = "write"
	StepPrune    = "prune"
)

// TableError is one failed step of a bulk sync.
type TableError struct {
	Table string
	Step  string
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Table, e.Step, e.Err)
}

func (e *TableError) Unwrap() error { return e.Err }

// SyncReport describes the outcome of Create. A report with failures is a
// warning: tables not listed were written in full.
type SyncReport struct {
	CaseID string
	// Written counts rows sent per table.
	Written map[string]int
	Failed  []*TableError
	// Offline is set when no remote store is configured.
	Offline bool
}

func (r *SyncReport) fail(table, step string, err error) {
	r.Failed = append(r.Failed, &TableError{Table: table, Step: step, Err: err})
}

// OK reports whether every step succeeded.
func (r SyncReport) OK() bool { return len(r.Failed) == 0 }

// MetadataFailed reports whether the case row itself was not written, in
// which case no evidence table was attempted.
func (r SyncReport) MetadataFailed() bool {
	for _, f := range r.Failed {
		if f.Step == StepMetadata || f.Step == StepVersion {
			return true
		}
	}
	return false
}

// TableFailed reports whether any step for table failed.
func (r SyncReport) TableFailed(table string) bool {
	for _, f := range r.Failed {
		if f.Table == table {
			return true
		}
	}
	return false
}

// Err joins every failure, or returns nil.
func (r SyncReport) Err() error {
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}
