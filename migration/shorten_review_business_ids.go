package migration

import (
	"context"

	"github.com/Clever/kayvee-go/v7/logger"

	"github.com/IntelliLead/review-migrations/mutation"
	"github.com/IntelliLead/review-migrations/resources"
	"github.com/IntelliLead/review-migrations/store"
	"github.com/IntelliLead/review-migrations/util"
)

const shortenReviewBusinessIDsName = "shorten-review-business-ids"

// ShortenReviewBusinessIDs moves reviews owned by a legacy business id into the partition of
// the short id and drops the vendor review id uniqueness markers.
type ShortenReviewBusinessIDs struct{}

func (ShortenReviewBusinessIDs) Name() string { return shortenReviewBusinessIDsName }

func (ShortenReviewBusinessIDs) DependsOn() []string {
	return []string{migrateReviewOwnerName}
}

func (s ShortenReviewBusinessIDs) Run(ctx context.Context, env Env) (Report, error) {
	report := newReport(s.Name())
	table := env.Tables.ReviewTable()
	reviews, err := env.scan(ctx, table)
	if err != nil {
		return *report, err
	}

	for _, review := range reviews {
		if err := ctx.Err(); err != nil {
			return *report, err
		}
		report.Scanned++
		owner, _ := util.StringAttr(review, resources.AttrUserID)
		reviewID, _ := util.StringAttr(review, resources.AttrUniqueID)
		data := logger.M{"owner": owner, "review-id": reviewID}

		if resources.IsUniqueVendorReviewIDSortKey(reviewID) {
			if env.apply(ctx, report, mutation.Delete(table, table.KeyOf(review)), data) {
				report.Mutated++
			}
			continue
		}
		if !util.HasAttr(review, resources.AttrCreatedAt) {
			report.warn(ctx, "missing-created-at", 1, data)
			continue
		}
		legacy, ok := resources.ParseLegacyBusinessID(owner)
		if !ok {
			if resources.IsShortBusinessID(owner) {
				report.Unchanged++
			} else {
				report.warn(ctx, "non-legacy-owner", 1, data)
			}
			continue
		}

		moved := store.Item(util.CloneItem(review))
		moved[resources.AttrUserID] = util.S(legacy.ShortID())
		tx := mutation.Transaction(
			store.PutOp(table, moved),
			store.DeleteOp(table, table.KeyOf(review)),
		)
		if env.apply(ctx, report, tx, with(data, logger.M{"short-id": legacy.ShortID()})) {
			report.Mutated++
		}
	}
	return *report, nil
}
