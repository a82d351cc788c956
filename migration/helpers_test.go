package migration

import (
	"context"

	"github.com/Clever/kayvee-go/v7/logger"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/IntelliLead/review-migrations/mutation"
	"github.com/IntelliLead/review-migrations/resources"
	"github.com/IntelliLead/review-migrations/store"
	"github.com/IntelliLead/review-migrations/store/memory"
	"github.com/IntelliLead/review-migrations/store/tests"
	"github.com/IntelliLead/review-migrations/util"
)

func init() {
	err := logger.SetGlobalRouting("../kvconfig.yml")
	if err != nil {
		panic(err)
	}
}

var (
	userTable     = tests.Tables.UserTable()
	reviewTable   = tests.Tables.ReviewTable()
	businessTable = tests.Tables.BusinessTable()
)

// liveEnv returns an env that writes to s, with a small page size so scans span pages.
func liveEnv(s store.Store) Env {
	return Env{
		Store:    s,
		Tables:   tests.Tables,
		Applier:  mutation.NewLive(s, 0),
		PageSize: 2,
	}
}

func testContext() (context.Context, *logger.MockRouteCountLogger) {
	mocklog := logger.NewMockCountLogger("review-migrations")
	return logger.NewContext(context.Background(), mocklog), mocklog
}

func user(id string, attrs store.Item) store.Item {
	item := store.Item{
		resources.AttrUserID:   util.S(id),
		resources.AttrUniqueID: util.S(resources.UserSortKey),
	}
	for k, v := range attrs {
		item[k] = v
	}
	return item
}

func review(owner, id string) store.Item {
	return store.Item{
		resources.AttrUserID:         util.S(owner),
		resources.AttrUniqueID:       util.S(id),
		resources.AttrVendorReviewID: util.S("vendor-" + owner + "-" + id),
		resources.AttrCreatedAt:      util.N("1700000000"),
	}
}

func marker(owner, vendorReviewID string) store.Item {
	return store.Item{
		resources.AttrUserID:   util.S(owner),
		resources.AttrUniqueID: util.S(resources.UniqueVendorReviewIDSortKey(vendorReviewID)),
	}
}

func business(id string, attrs store.Item) store.Item {
	item := store.Item{
		resources.AttrBusinessID: util.S(id),
		resources.AttrUniqueID:   util.S("#"),
	}
	for k, v := range attrs {
		item[k] = v
	}
	return item
}

func googleAttr(attrs map[string]string) *dynamodb.AttributeValue {
	m := map[string]*dynamodb.AttributeValue{}
	for k, v := range attrs {
		m[k] = util.S(v)
	}
	return util.M(m)
}

// reviewIDs returns the sort keys of the review table grouped by owner.
func reviewIDs(s memory.MemoryStore) map[string][]string {
	ids := map[string][]string{}
	for _, item := range s.Items(reviewTable) {
		owner, _ := util.StringAttr(item, resources.AttrUserID)
		id, _ := util.StringAttr(item, resources.AttrUniqueID)
		ids[owner] = append(ids[owner], id)
	}
	return ids
}

// fixture is a store holding some of every kind of record the migrations touch.
func fixture() memory.MemoryStore {
	s := memory.New()
	s.Seed(userTable,
		user("U1", store.Item{
			resources.AttrActiveBusinessID: util.S("accounts/7/locations/100"),
		}),
		user("U2", store.Item{
			resources.AttrActiveBusinessID: util.S("accounts/7/locations/200"),
			resources.AttrBusinessIDs:      util.SS("accounts/7/locations/100", "accounts/7/locations/200"),
			resources.AttrGoogle:           googleAttr(map[string]string{"accessToken": "t2"}),
		}),
		user("U3", nil),
	)
	s.Seed(reviewTable,
		review("U1", "048"),
		review("U1", "050"),
		review("U1", "065"),
		marker("U1", "vendor-U1-050"),
		review("accounts/7/locations/200", "048"),
		marker("accounts/7/locations/200", "vendor-x"),
	)
	s.Seed(businessTable,
		business("accounts/7/locations/100", store.Item{
			resources.AttrBusinessName: util.S("Noodles"),
			resources.AttrGoogle:       googleAttr(map[string]string{"accessToken": "t1"}),
			resources.AttrUserIDs:      util.SS("U1", "U2"),
		}),
		business("accounts/7/locations/200", store.Item{
			resources.AttrBusinessName: util.S("Ramen"),
			resources.AttrUserIDs:      util.SS("U2"),
		}),
	)
	return s
}
