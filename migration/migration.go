// Package migration holds the one-off data migrations of the User, Review and Business tables.
//
// Every migration reads all the records it needs first, decides in memory what to change, and
// hands each change to the Env's mutation.Applier. Whether a run is a dry run is decided only
// by that applier.
package migration

import (
	"context"

	"github.com/Clever/kayvee-go/v7/logger"
	"golang.org/x/xerrors"

	"github.com/IntelliLead/review-migrations/mutation"
	"github.com/IntelliLead/review-migrations/store"
)

// Env is what a migration runs against.
type Env struct {
	Store   store.Store
	Tables  store.TableConfig
	Applier mutation.Applier
	// PageSize is the page size of scans and queries. Zero lets the store decide.
	PageSize int64
}

// Migration is one migration job.
type Migration interface {
	Name() string
	// DependsOn names the migrations that must have run before this one.
	DependsOn() []string
	// Run migrates every record. Problems with single records are counted in the report;
	// the error is only set when the migration could not run at all.
	Run(ctx context.Context, env Env) (Report, error)
}

func (e Env) scan(ctx context.Context, table store.Table, projection ...string) ([]store.Item, error) {
	items, err := store.ScanAll(ctx, e.Store, store.ScanQuery{
		Table:      table,
		Projection: projection,
		Limit:      e.PageSize,
	})
	if err != nil {
		return nil, xerrors.Errorf("scanning %s: %w", table.Name, err)
	}
	return items, nil
}

func (e Env) query(ctx context.Context, table store.Table, partition string) ([]store.Item, error) {
	items, err := store.QueryAll(ctx, e.Store, store.PartitionQuery{
		Table:          table,
		PartitionValue: partition,
		Limit:          e.PageSize,
	})
	if err != nil {
		return nil, xerrors.Errorf("querying %s for %s: %w", table.Name, partition, err)
	}
	return items, nil
}

// apply hands m to the applier. A failed write is counted and logged for one record.
func (e Env) apply(ctx context.Context, report *Report, m mutation.Mutation, data logger.M) bool {
	if err := e.Applier.Apply(ctx, m); err != nil {
		report.fail(ctx, "write-failed", xerrors.Errorf("%s: %w", m.String(), err), with(data, logger.M{
			"mutation": m.String(),
		}))
		return false
	}
	return true
}

// with merges logger data, later maps win.
func with(ms ...logger.M) logger.M {
	out := logger.M{}
	for _, m := range ms {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
