package migration

import (
	"context"
	"fmt"

	"github.com/Clever/kayvee-go/v7/logger"
	"golang.org/x/xerrors"

	"github.com/IntelliLead/review-migrations/mutation"
	"github.com/IntelliLead/review-migrations/resources"
	"github.com/IntelliLead/review-migrations/store"
	"github.com/IntelliLead/review-migrations/util"
)

const shortenBusinessIDsName = "shorten-business-ids"

// InvalidBusinessIDError is returned for a business id that is not in the legacy form.
type InvalidBusinessIDError struct {
	Attribute string
	ID        string
}

func (e InvalidBusinessIDError) Error() string {
	return fmt.Sprintf("invalid business id in %s: %s", e.Attribute, e.ID)
}

// ConflictingAccountIDsError is returned when the business ids of one user belong to
// different accounts.
type ConflictingAccountIDsError struct {
	First  string
	Second string
}

func (e ConflictingAccountIDsError) Error() string {
	return fmt.Sprintf("multiple business account ids: %s, %s", e.First, e.Second)
}

// accountIDFold accumulates the account id shared by all the legacy business ids of a user.
// The first invalid id or conflicting account id sticks.
type accountIDFold struct {
	accountID string
	err       error
}

func (f accountIDFold) add(attribute, id string) accountIDFold {
	if f.err != nil {
		return f
	}
	legacy, ok := resources.ParseLegacyBusinessID(id)
	if !ok {
		return accountIDFold{accountID: f.accountID, err: InvalidBusinessIDError{Attribute: attribute, ID: id}}
	}
	if f.accountID != "" && f.accountID != legacy.AccountID {
		return accountIDFold{accountID: f.accountID, err: ConflictingAccountIDsError{First: f.accountID, Second: legacy.AccountID}}
	}
	return accountIDFold{accountID: legacy.AccountID}
}

// ShortenBusinessIDs replaces legacy business ids by their location ids, first in the users'
// business references and then in the keys of the business records.
type ShortenBusinessIDs struct{}

func (ShortenBusinessIDs) Name() string { return shortenBusinessIDsName }

func (ShortenBusinessIDs) DependsOn() []string {
	return []string{backfillBusinessIDsName, migrateGoogleName, migrateReviewOwnerName}
}

func (s ShortenBusinessIDs) Run(ctx context.Context, env Env) (Report, error) {
	report := newReport(s.Name())
	if err := s.shortenUsers(ctx, env, report); err != nil {
		return *report, err
	}
	if err := s.shortenBusinesses(ctx, env, report); err != nil {
		return *report, err
	}
	return *report, nil
}

func (s ShortenBusinessIDs) shortenUsers(ctx context.Context, env Env, report *Report) error {
	table := env.Tables.UserTable()
	users, err := env.scan(ctx, table)
	if err != nil {
		return err
	}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Scanned++
		userID, _ := util.StringAttr(user, resources.AttrUserID)
		data := logger.M{"user-id": userID}

		businessIDs, hasBusinessIDs := util.StringSetAttr(user, resources.AttrBusinessIDs)
		active, hasActive := util.StringAttr(user, resources.AttrActiveBusinessID)
		google, hasGoogle := util.MapAttr(user, resources.AttrGoogle)
		switch {
		case !hasBusinessIDs || len(businessIDs) == 0:
			report.warn(ctx, "missing-business-ids", 1, data)
			continue
		case !hasActive || active == "":
			report.warn(ctx, "missing-active-business-id", 1, data)
			continue
		case !hasGoogle:
			report.warn(ctx, "missing-google", 1, data)
			continue
		}

		if alreadyShort(businessIDs, active) && util.HasAttr(google, resources.AttrBusinessAccountID) {
			report.Unchanged++
			continue
		}

		fold := accountIDFold{}
		for _, id := range businessIDs {
			fold = fold.add(resources.AttrBusinessIDs, id)
		}
		fold = fold.add(resources.AttrActiveBusinessID, active)
		if fold.err != nil {
			title := "invalid-business-id"
			if _, ok := fold.err.(ConflictingAccountIDsError); ok {
				title = "conflicting-business-account-ids"
			}
			report.reject(ctx, title, xerrors.Errorf("user %s: %w", userID, fold.err), 1, data)
			continue
		}

		shortIDs := make([]string, 0, len(businessIDs))
		for _, id := range businessIDs {
			legacy, _ := resources.ParseLegacyBusinessID(id)
			shortIDs = append(shortIDs, legacy.ShortID())
		}
		activeLegacy, _ := resources.ParseLegacyBusinessID(active)
		newGoogle := util.CloneItem(google)
		newGoogle[resources.AttrBusinessAccountID] = util.S(fold.accountID)

		set := store.Item{
			resources.AttrBusinessIDs:      util.SS(shortIDs...),
			resources.AttrActiveBusinessID: util.S(activeLegacy.ShortID()),
			resources.AttrGoogle:           util.M(newGoogle),
		}
		if env.apply(ctx, report, mutation.Update(table, table.KeyOf(user), set), data) {
			report.Mutated++
		}
	}
	return nil
}

func (s ShortenBusinessIDs) shortenBusinesses(ctx context.Context, env Env, report *Report) error {
	table := env.Tables.BusinessTable()
	businesses, err := env.scan(ctx, table)
	if err != nil {
		return err
	}

	for _, business := range businesses {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Scanned++
		businessID, _ := util.StringAttr(business, resources.AttrBusinessID)
		data := logger.M{"business-id": businessID}

		legacy, ok := resources.ParseLegacyBusinessID(businessID)
		if !ok {
			if resources.IsShortBusinessID(businessID) {
				report.Unchanged++
			} else {
				report.warn(ctx, "non-legacy-business-id", 1, data)
			}
			continue
		}

		moved := store.Item(util.CloneItem(business))
		moved[resources.AttrBusinessID] = util.S(legacy.ShortID())
		tx := mutation.Transaction(
			store.PutOp(table, moved),
			store.DeleteOp(table, table.KeyOf(business)),
		)
		if env.apply(ctx, report, tx, with(data, logger.M{"short-id": legacy.ShortID()})) {
			report.Mutated++
		}
	}
	return nil
}

func alreadyShort(businessIDs []string, active string) bool {
	for _, id := range businessIDs {
		if !resources.IsShortBusinessID(id) {
			return false
		}
	}
	return resources.IsShortBusinessID(active)
}
