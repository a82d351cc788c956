package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IntelliLead/review-migrations/resources"
	"github.com/IntelliLead/review-migrations/store"
	"github.com/IntelliLead/review-migrations/store/memory"
	"github.com/IntelliLead/review-migrations/util"
)

func TestBackfillBusinessIDs(t *testing.T) {
	ctx, mocklog := testContext()
	s := memory.New()
	s.Seed(userTable,
		user("U1", store.Item{resources.AttrActiveBusinessID: util.S("accounts/7/locations/100")}),
		user("U2", store.Item{
			resources.AttrActiveBusinessID: util.S("accounts/7/locations/100"),
			resources.AttrBusinessIDs:      util.SS("accounts/7/locations/200"),
		}),
		user("U3", nil),
	)

	report, err := BackfillBusinessIDs{}.Run(ctx, liveEnv(s))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.Mutated)
	assert.Equal(t, 1, report.Unchanged)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, mocklog.RuleCounts()["record-warnings"])

	u1, err := s.GetItem(ctx, userTable, userTable.Key("U1", resources.UserSortKey))
	require.NoError(t, err)
	ids, _ := util.StringSetAttr(u1, resources.AttrBusinessIDs)
	assert.Equal(t, []string{"accounts/7/locations/100"}, ids)

	t.Log("existing business ids are left alone")
	u2, err := s.GetItem(ctx, userTable, userTable.Key("U2", resources.UserSortKey))
	require.NoError(t, err)
	ids, _ = util.StringSetAttr(u2, resources.AttrBusinessIDs)
	assert.Equal(t, []string{"accounts/7/locations/200"}, ids)

	t.Log("a second run changes nothing")
	report, err = BackfillBusinessIDs{}.Run(ctx, liveEnv(s))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Mutated)
	assert.Equal(t, 2, report.Unchanged)
}
