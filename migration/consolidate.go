package migration

import (
	"context"
	"fmt"
	"sort"

	"github.com/Clever/kayvee-go/v7/logger"
	"golang.org/x/xerrors"

	"github.com/IntelliLead/review-migrations/mutation"
	"github.com/IntelliLead/review-migrations/resources"
	"github.com/IntelliLead/review-migrations/store"
	"github.com/IntelliLead/review-migrations/util"
)

const consolidateReviewIDsName = "consolidate-review-ids"

// OwnerTable is the table review owners are listed from.
type OwnerTable string

const (
	OwnerTableUser     OwnerTable = "user"
	OwnerTableBusiness OwnerTable = "business"
)

// ParseOwnerTable parses user or business. The empty string is user.
func ParseOwnerTable(s string) (OwnerTable, error) {
	switch OwnerTable(s) {
	case "", OwnerTableUser:
		return OwnerTableUser, nil
	case OwnerTableBusiness:
		return OwnerTableBusiness, nil
	}
	return "", fmt.Errorf("unknown owner table %q, expected user or business", s)
}

func (o OwnerTable) table(tables store.TableConfig) store.Table {
	if o == OwnerTableBusiness {
		return tables.BusinessTable()
	}
	return tables.UserTable()
}

// ConsolidateReviewIDs renumbers the reviews of every owner so their ids are dense and in
// sequence order. A review is moved by writing it under the new id and then deleting the old
// record. A run interrupted between the two leaves the review under both ids; the next run
// keeps the lower one and deletes the other before renumbering.
type ConsolidateReviewIDs struct {
	Policy     NumberingPolicy
	OwnerTable OwnerTable
}

func (c ConsolidateReviewIDs) Name() string { return consolidateReviewIDsName }

func (c ConsolidateReviewIDs) DependsOn() []string { return nil }

func (c ConsolidateReviewIDs) Run(ctx context.Context, env Env) (Report, error) {
	report := newReport(c.Name())
	policy := c.Policy
	if policy == nil {
		policy = RestartNumbering{}
	}

	owners, err := c.owners(ctx, env)
	if err != nil {
		return *report, err
	}
	logger.FromContext(ctx).InfoD("consolidate-start", logger.M{
		"owners":      len(owners),
		"owner-table": string(c.OwnerTable),
		"policy":      policy.Name(),
	})

	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return *report, err
		}
		c.consolidateOwner(ctx, env, report, policy, owner)
	}
	return *report, nil
}

// owners returns the distinct partition key values of the owner table.
func (c ConsolidateReviewIDs) owners(ctx context.Context, env Env) ([]string, error) {
	table := c.OwnerTable.table(env.Tables)
	items, err := env.scan(ctx, table, table.PartitionKey)
	if err != nil {
		return nil, err
	}
	owners := []string{}
	seen := map[string]bool{}
	for _, item := range items {
		owner, ok := util.StringAttr(item, table.PartitionKey)
		if !ok || seen[owner] {
			continue
		}
		seen[owner] = true
		owners = append(owners, owner)
	}
	return owners, nil
}

type numberedReview struct {
	id    string
	value int64
	item  store.Item
}

// reviewsOf returns the reviews of an owner without uniqueness markers.
func reviewsOf(ctx context.Context, env Env, owner string) ([]store.Item, error) {
	items, err := env.query(ctx, env.Tables.ReviewTable(), owner)
	if err != nil {
		return nil, err
	}
	reviews := []store.Item{}
	for _, item := range items {
		id, _ := util.StringAttr(item, resources.AttrUniqueID)
		if resources.IsUniqueVendorReviewIDSortKey(id) {
			continue
		}
		reviews = append(reviews, item)
	}
	return reviews, nil
}

// inSequenceOrder sorts reviews by the decoded value of their ids.
func inSequenceOrder(reviews []store.Item) ([]numberedReview, error) {
	numbered := make([]numberedReview, 0, len(reviews))
	for _, item := range reviews {
		id, _ := util.StringAttr(item, resources.AttrUniqueID)
		value, err := resources.DecodeReviewID(id)
		if err != nil {
			return nil, err
		}
		numbered = append(numbered, numberedReview{id: id, value: value, item: item})
	}
	sort.SliceStable(numbered, func(i, j int) bool {
		return numbered[i].value < numbered[j].value
	})
	return numbered, nil
}

func (c ConsolidateReviewIDs) consolidateOwner(ctx context.Context, env Env, report *Report, policy NumberingPolicy, owner string) {
	table := env.Tables.ReviewTable()
	data := logger.M{"owner": owner}

	reviews, err := reviewsOf(ctx, env, owner)
	if err != nil {
		report.fail(ctx, "read-failed", err, data)
		return
	}
	report.Scanned += len(reviews)

	ordered, err := inSequenceOrder(reviews)
	if err != nil {
		report.reject(ctx, "malformed-review-id", xerrors.Errorf("owner %s: %w", owner, err), len(reviews), data)
		return
	}
	ordered, ok := c.dropDuplicates(ctx, env, report, ordered, data)
	if !ok {
		return
	}
	ids := make([]string, len(ordered))
	for i, r := range ordered {
		ids[i] = r.id
	}

	keep, next, renumber, err := policy.Start(ids)
	if err != nil {
		report.reject(ctx, "malformed-review-id", xerrors.Errorf("owner %s: %w", owner, err), len(reviews), data)
		return
	}
	if !renumber {
		report.Unchanged += len(ordered)
		logger.FromContext(ctx).InfoD("owner-skipped", with(data, logger.M{
			"reviews": len(ordered),
			"policy":  policy.Name(),
		}))
		return
	}
	report.Unchanged += keep

	for i, review := range ordered[keep:] {
		if review.id != next {
			moved := store.Item(util.CloneItem(review.item))
			moved[resources.AttrUniqueID] = util.S(next)
			reviewData := with(data, logger.M{"from": review.id, "to": next})

			if !env.apply(ctx, report, mutation.Put(table, moved), reviewData) ||
				!env.apply(ctx, report, mutation.Delete(table, table.KeyOf(review.item)), reviewData) {
				// later reviews would be renumbered onto ids that are still taken
				remaining := len(ordered) - keep - i - 1
				report.warn(ctx, "owner-stopped", remaining, with(data, logger.M{"remaining": remaining}))
				return
			}
			report.Mutated++
		} else {
			report.Unchanged++
		}

		if next, err = resources.NextReviewID(next); err != nil {
			report.reject(ctx, "malformed-review-id", err, 0, data)
			return
		}
	}
}

// dropDuplicates deletes every review whose vendor review id is already held by a review with a
// lower id, the leftovers of a move whose delete never happened. It returns the remaining
// reviews and false when a delete failed.
func (c ConsolidateReviewIDs) dropDuplicates(ctx context.Context, env Env, report *Report, ordered []numberedReview, data logger.M) ([]numberedReview, bool) {
	table := env.Tables.ReviewTable()
	kept := make([]numberedReview, 0, len(ordered))
	holders := map[string]string{}
	for i, review := range ordered {
		vendorReviewID, ok := util.StringAttr(review.item, resources.AttrVendorReviewID)
		if !ok {
			kept = append(kept, review)
			continue
		}
		holder, seen := holders[vendorReviewID]
		if !seen {
			holders[vendorReviewID] = review.id
			kept = append(kept, review)
			continue
		}
		reviewData := with(data, logger.M{"id": review.id, "kept": holder, "vendor-review-id": vendorReviewID})
		if !env.apply(ctx, report, mutation.Delete(table, table.KeyOf(review.item)), reviewData) {
			remaining := len(ordered) - i - 1 + len(kept)
			report.warn(ctx, "owner-stopped", remaining, with(data, logger.M{"remaining": remaining}))
			return nil, false
		}
		logger.FromContext(ctx).InfoD("duplicate-review", reviewData)
		report.Mutated++
	}
	return kept, true
}
