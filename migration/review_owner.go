package migration

import (
	"context"

	"github.com/Clever/kayvee-go/v7/logger"

	"github.com/IntelliLead/review-migrations/mutation"
	"github.com/IntelliLead/review-migrations/resources"
	"github.com/IntelliLead/review-migrations/store"
	"github.com/IntelliLead/review-migrations/util"
)

const migrateReviewOwnerName = "migrate-review-owner"

// MigrateReviewOwner moves the reviews of every user with an active business into the
// partition of that business. Each review is moved in one transaction together with the
// removal of its vendor review id uniqueness marker. A review whose id is already taken in
// the business partition, by an existing review or one moved earlier in the run, is left with
// its user.
type MigrateReviewOwner struct{}

func (MigrateReviewOwner) Name() string { return migrateReviewOwnerName }

func (MigrateReviewOwner) DependsOn() []string {
	return []string{consolidateReviewIDsName, backfillBusinessIDsName}
}

func (m MigrateReviewOwner) Run(ctx context.Context, env Env) (Report, error) {
	report := newReport(m.Name())
	users, err := env.scan(ctx, env.Tables.UserTable(),
		resources.AttrUserID, resources.AttrUniqueID, resources.AttrActiveBusinessID)
	if err != nil {
		return *report, err
	}

	taken := map[string]map[string]bool{}
	owners := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return *report, err
		}
		userID, _ := util.StringAttr(user, resources.AttrUserID)
		businessID, ok := util.StringAttr(user, resources.AttrActiveBusinessID)
		if !ok || businessID == "" {
			continue
		}
		owners++
		m.moveReviews(ctx, env, report, taken, userID, businessID)
	}
	logger.FromContext(ctx).InfoD("users-with-active-business", logger.M{
		"users": len(users),
		"with":  owners,
	})
	return *report, nil
}

// takenIDs returns the review ids of a business partition, loading them on first use.
func (m MigrateReviewOwner) takenIDs(ctx context.Context, env Env, taken map[string]map[string]bool, businessID string) (map[string]bool, error) {
	if ids, ok := taken[businessID]; ok {
		return ids, nil
	}
	reviews, err := reviewsOf(ctx, env, businessID)
	if err != nil {
		return nil, err
	}
	ids := map[string]bool{}
	for _, review := range reviews {
		id, _ := util.StringAttr(review, resources.AttrUniqueID)
		ids[id] = true
	}
	taken[businessID] = ids
	return ids, nil
}

func (m MigrateReviewOwner) moveReviews(ctx context.Context, env Env, report *Report, taken map[string]map[string]bool, userID, businessID string) {
	table := env.Tables.ReviewTable()
	data := logger.M{"user-id": userID, "business-id": businessID}

	reviews, err := reviewsOf(ctx, env, userID)
	if err != nil {
		report.fail(ctx, "read-failed", err, data)
		return
	}
	var businessIDs map[string]bool
	if userID != businessID && len(reviews) > 0 {
		if businessIDs, err = m.takenIDs(ctx, env, taken, businessID); err != nil {
			report.fail(ctx, "read-failed", err, data)
			return
		}
	}
	for _, review := range reviews {
		report.Scanned++
		reviewID, _ := util.StringAttr(review, resources.AttrUniqueID)
		reviewData := with(data, logger.M{"review-id": reviewID})
		if userID == businessID {
			report.Unchanged++
			continue
		}
		vendorReviewID, ok := util.StringAttr(review, resources.AttrVendorReviewID)
		if !ok || vendorReviewID == "" {
			report.warn(ctx, "missing-vendor-review-id", 1, reviewData)
			continue
		}
		if businessIDs[reviewID] {
			report.warn(ctx, "review-id-taken", 1, reviewData)
			continue
		}

		moved := store.Item(util.CloneItem(review))
		moved[resources.AttrUserID] = util.S(businessID)
		tx := mutation.Transaction(
			store.PutOp(table, moved),
			store.DeleteOp(table, table.KeyOf(review)),
			store.DeleteOp(table, table.Key(userID, resources.UniqueVendorReviewIDSortKey(vendorReviewID))),
		)
		if env.apply(ctx, report, tx, reviewData) {
			businessIDs[reviewID] = true
			report.Mutated++
		}
	}
}
