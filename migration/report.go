package migration

import (
	"context"

	"github.com/Clever/kayvee-go/v7/logger"
	multierror "github.com/hashicorp/go-multierror"
)

// Report counts what a migration did. Scanned counts the records enumerated; every record that
// was considered for a change ends up in exactly one of Mutated, Unchanged, Skipped or Failed.
type Report struct {
	Name string
	// Scanned is the number of source records read.
	Scanned int
	// Mutated is the number of records written, or that would have been written in a dry run.
	Mutated int
	// Unchanged is the number of records that were already migrated.
	Unchanged int
	// Skipped is the number of records left alone because they failed validation.
	Skipped int
	// Failed is the number of records whose writes or reads failed.
	Failed int
	// Errors holds every rejected or failed record's error.
	Errors *multierror.Error
}

func newReport(name string) *Report {
	return &Report{Name: name}
}

// Err returns every accumulated error, or nil.
func (r Report) Err() error {
	return r.Errors.ErrorOrNil()
}

// LogData summarizes the report for structured logs.
func (r Report) LogData() logger.M {
	errCount := 0
	if r.Errors != nil {
		errCount = len(r.Errors.Errors)
	}
	return logger.M{
		"migration": r.Name,
		"scanned":   r.Scanned,
		"mutated":   r.Mutated,
		"unchanged": r.Unchanged,
		"skipped":   r.Skipped,
		"failed":    r.Failed,
		"errors":    errCount,
	}
}

// warn skips records that are missing something the migration needs.
func (r *Report) warn(ctx context.Context, title string, records int, data logger.M) {
	r.Skipped += records
	logger.FromContext(ctx).WarnD(title, with(logger.M{"migration": r.Name}, data))
}

// reject skips records whose data is inconsistent.
func (r *Report) reject(ctx context.Context, title string, err error, records int, data logger.M) {
	r.Skipped += records
	r.Errors = multierror.Append(r.Errors, err)
	logger.FromContext(ctx).ErrorD(title, with(logger.M{"migration": r.Name, "error": err.Error()}, data))
}

// fail counts one record that could not be read or written.
func (r *Report) fail(ctx context.Context, title string, err error, data logger.M) {
	r.Failed++
	r.Errors = multierror.Append(r.Errors, err)
	logger.FromContext(ctx).ErrorD(title, with(logger.M{"migration": r.Name, "error": err.Error()}, data))
}
