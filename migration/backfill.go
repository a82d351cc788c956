package migration

import (
	"context"

	"github.com/Clever/kayvee-go/v7/logger"

	"github.com/IntelliLead/review-migrations/mutation"
	"github.com/IntelliLead/review-migrations/resources"
	"github.com/IntelliLead/review-migrations/store"
	"github.com/IntelliLead/review-migrations/util"
)

const backfillBusinessIDsName = "backfill-business-ids"

// BackfillBusinessIDs gives every user that has an active business but no business id set
// a set holding just the active business.
type BackfillBusinessIDs struct{}

func (BackfillBusinessIDs) Name() string { return backfillBusinessIDsName }

func (BackfillBusinessIDs) DependsOn() []string { return nil }

func (b BackfillBusinessIDs) Run(ctx context.Context, env Env) (Report, error) {
	report := newReport(b.Name())
	table := env.Tables.UserTable()
	users, err := env.scan(ctx, table,
		resources.AttrUserID, resources.AttrUniqueID, resources.AttrActiveBusinessID, resources.AttrBusinessIDs)
	if err != nil {
		return *report, err
	}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return *report, err
		}
		report.Scanned++
		userID, _ := util.StringAttr(user, resources.AttrUserID)
		data := logger.M{"user-id": userID}

		if ids, ok := util.StringSetAttr(user, resources.AttrBusinessIDs); ok && len(ids) > 0 {
			report.Unchanged++
			continue
		}
		active, ok := util.StringAttr(user, resources.AttrActiveBusinessID)
		if !ok || active == "" {
			report.warn(ctx, "missing-active-business-id", 1, data)
			continue
		}

		set := store.Item{resources.AttrBusinessIDs: util.SS(active)}
		if env.apply(ctx, report, mutation.Update(table, table.KeyOf(user), set), data) {
			report.Mutated++
		}
	}
	return *report, nil
}
