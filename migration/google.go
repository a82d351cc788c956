package migration

import (
	"context"

	"github.com/Clever/kayvee-go/v7/logger"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/xerrors"

	"github.com/IntelliLead/review-migrations/mutation"
	"github.com/IntelliLead/review-migrations/resources"
	"github.com/IntelliLead/review-migrations/store"
	"github.com/IntelliLead/review-migrations/util"
)

const migrateGoogleName = "migrate-google"

// DefaultUserCacheSize bounds the users MigrateGoogle keeps in memory.
const DefaultUserCacheSize = 1000

// MigrateGoogle copies the google attribute of every business to those of its users that
// do not have one yet.
type MigrateGoogle struct {
	CacheSize int
}

func (MigrateGoogle) Name() string { return migrateGoogleName }

func (MigrateGoogle) DependsOn() []string { return nil }

func (m MigrateGoogle) Run(ctx context.Context, env Env) (Report, error) {
	report := newReport(m.Name())
	size := m.CacheSize
	if size <= 0 {
		size = DefaultUserCacheSize
	}
	// users are shared between businesses, the cache only saves reads
	cache, err := lru.New(size)
	if err != nil {
		return *report, err
	}
	// written never evicts so a dry run skips users it already would have updated
	written := map[string]bool{}

	businesses, err := env.scan(ctx, env.Tables.BusinessTable(),
		resources.AttrBusinessID, resources.AttrUniqueID, resources.AttrBusinessName,
		resources.AttrGoogle, resources.AttrUserIDs)
	if err != nil {
		return *report, err
	}

	users := env.Tables.UserTable()
	for _, business := range businesses {
		if err := ctx.Err(); err != nil {
			return *report, err
		}
		report.Scanned++
		businessID, _ := util.StringAttr(business, resources.AttrBusinessID)
		businessName, _ := util.StringAttr(business, resources.AttrBusinessName)
		google, ok := business[resources.AttrGoogle]
		if !ok || google.M == nil {
			continue
		}
		userIDs, _ := util.StringSetAttr(business, resources.AttrUserIDs)
		logger.FromContext(ctx).InfoD("business-has-google", logger.M{
			"business-id":   businessID,
			"business-name": businessName,
			"users":         len(userIDs),
		})

		for _, userID := range userIDs {
			data := logger.M{"business-id": businessID, "user-id": userID}
			if written[userID] {
				report.Unchanged++
				continue
			}
			user, err := m.user(ctx, env, cache, userID)
			if err != nil {
				var notFound store.NotFoundError
				if xerrors.As(err, &notFound) {
					report.warn(ctx, "user-not-found", 1, data)
				} else {
					report.fail(ctx, "read-failed", err, data)
				}
				continue
			}
			if username, ok := util.StringAttr(user, resources.AttrLineUsername); ok {
				data["line-username"] = username
			}
			if util.HasAttr(user, resources.AttrGoogle) {
				report.Unchanged++
				continue
			}

			set := store.Item{resources.AttrGoogle: util.CloneValue(google)}
			if !env.apply(ctx, report, mutation.Update(users, users.KeyOf(user), set), data) {
				continue
			}
			report.Mutated++
			written[userID] = true
			cache.Remove(userID)
		}
	}
	return *report, nil
}

func (m MigrateGoogle) user(ctx context.Context, env Env, cache *lru.Cache, userID string) (store.Item, error) {
	if cached, ok := cache.Get(userID); ok {
		return cached.(store.Item), nil
	}
	users := env.Tables.UserTable()
	user, err := env.Store.GetItem(ctx, users, users.Key(userID, resources.UserSortKey))
	if err != nil {
		return nil, err
	}
	cache.Add(userID, user)
	return user, nil
}
