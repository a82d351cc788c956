package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IntelliLead/review-migrations/store"
	"github.com/IntelliLead/review-migrations/util"
)

// Tables used by the suite. Implementations that need tables created up front
// should create these before running the tests.
var Tables = store.TableConfig{
	Users:      "test-User",
	Reviews:    "test-Review",
	Businesses: "test-Business",
}

// RunStoreTests runs every store test against fresh stores built by newStore.
func RunStoreTests(t *testing.T, newStore func() store.Store) {
	t.Run("PutGetDelete", PutGetDelete(newStore(), t))
	t.Run("UpdateItem", UpdateItem(newStore(), t))
	t.Run("ScanPages", ScanPages(newStore(), t))
	t.Run("QueryPartition", QueryPartition(newStore(), t))
	t.Run("TransactWrite", TransactWrite(newStore(), t))
}

func review(owner, id string) store.Item {
	return store.Item{
		"userId":         util.S(owner),
		"uniqueId":       util.S(id),
		"vendorReviewId": util.S("v-" + owner + "-" + id),
		"createdAt":      util.N("1700000000"),
	}
}

func PutGetDelete(s store.Store, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		table := Tables.ReviewTable()
		item := review("pgd-owner", "048")

		t.Log("missing records are reported as not found")
		_, err := s.GetItem(ctx, table, table.Key("pgd-owner", "048"))
		require.IsType(t, store.NotFoundError{}, err)

		require.NoError(t, s.PutItem(ctx, table, item))
		got, err := s.GetItem(ctx, table, table.Key("pgd-owner", "048"))
		require.NoError(t, err)
		assert.Equal(t, item, got)

		t.Log("put overwrites the whole record")
		replacement := store.Item{"userId": util.S("pgd-owner"), "uniqueId": util.S("048")}
		require.NoError(t, s.PutItem(ctx, table, replacement))
		got, err = s.GetItem(ctx, table, table.Key("pgd-owner", "048"))
		require.NoError(t, err)
		assert.Equal(t, replacement, got)

		require.NoError(t, s.DeleteItem(ctx, table, table.Key("pgd-owner", "048")))
		_, err = s.GetItem(ctx, table, table.Key("pgd-owner", "048"))
		require.IsType(t, store.NotFoundError{}, err)

		t.Log("deleting an absent record is not an error")
		require.NoError(t, s.DeleteItem(ctx, table, table.Key("pgd-owner", "048")))
	}
}

func UpdateItem(s store.Store, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		table := Tables.UserTable()
		user := store.Item{
			"userId":           util.S("upd-user"),
			"uniqueId":         util.S("#"),
			"activeBusinessId": util.S("accounts/1/locations/2"),
			"lineUsername":     util.S("someone"),
		}
		require.NoError(t, s.PutItem(ctx, table, user))

		require.NoError(t, s.UpdateItem(ctx, table, table.Key("upd-user", "#"), store.Item{
			"activeBusinessId": util.S("2"),
			"businessIds":      util.SS("2"),
		}))

		got, err := s.GetItem(ctx, table, table.Key("upd-user", "#"))
		require.NoError(t, err)
		assert.Equal(t, "2", *got["activeBusinessId"].S)
		assert.Equal(t, []string{"2"}, []string{*got["businessIds"].SS[0]})
		assert.Equal(t, "someone", *got["lineUsername"].S, "untouched attributes are kept")
	}
}

func ScanPages(s store.Store, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		table := Tables.BusinessTable()
		for i := 0; i < 7; i++ {
			require.NoError(t, s.PutItem(ctx, table, store.Item{
				"businessId":   util.S(fmt.Sprintf("scan-%d", i)),
				"uniqueId":     util.S("#"),
				"businessName": util.S(fmt.Sprintf("business %d", i)),
			}))
		}

		t.Log("pages are followed until the token runs out")
		pages := 0
		query := store.ScanQuery{Table: table, Limit: 3}
		seen := map[string]bool{}
		for {
			items, next, err := s.ScanPage(ctx, query)
			require.NoError(t, err)
			pages++
			for _, item := range items {
				id, _ := util.StringAttr(item, "businessId")
				seen[id] = true
			}
			if next == "" {
				break
			}
			query.PageToken = next
		}
		assert.True(t, pages >= 3, "expected at least 3 pages, got %d", pages)
		assert.Len(t, seen, 7)

		all, err := store.ScanAll(ctx, s, store.ScanQuery{Table: table, Limit: 2, Projection: []string{"businessId"}})
		require.NoError(t, err)
		require.Len(t, all, 7)
		for _, item := range all {
			assert.Len(t, item, 1, "projection keeps only the requested attributes")
		}
	}
}

func QueryPartition(s store.Store, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		table := Tables.ReviewTable()
		for _, id := range []string{"050", "048", "049", "#UNIQUE_VENDOR_REVIEW_ID#v1"} {
			require.NoError(t, s.PutItem(ctx, table, review("query-owner", id)))
		}
		require.NoError(t, s.PutItem(ctx, table, review("query-other", "048")))

		items, err := store.QueryAll(ctx, s, store.PartitionQuery{Table: table, PartitionValue: "query-owner", Limit: 2})
		require.NoError(t, err)
		ids := []string{}
		for _, item := range items {
			id, _ := util.StringAttr(item, "uniqueId")
			ids = append(ids, id)
		}
		assert.Equal(t, []string{"#UNIQUE_VENDOR_REVIEW_ID#v1", "048", "049", "050"}, ids)

		items, err = store.QueryAll(ctx, s, store.PartitionQuery{Table: table, PartitionValue: "query-nobody"})
		require.NoError(t, err)
		assert.Empty(t, items)
	}
}

func TransactWrite(s store.Store, t *testing.T) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		table := Tables.ReviewTable()
		old := review("tx-old", "048")
		marker := review("tx-old", "#UNIQUE_VENDOR_REVIEW_ID#v-tx-old-048")
		require.NoError(t, s.PutItem(ctx, table, old))
		require.NoError(t, s.PutItem(ctx, table, marker))

		moved := util.CloneItem(old)
		moved["userId"] = util.S("tx-new")
		require.NoError(t, s.TransactWrite(ctx, []store.WriteOp{
			store.PutOp(table, moved),
			store.DeleteOp(table, table.KeyOf(old)),
			store.DeleteOp(table, table.KeyOf(marker)),
		}))

		got, err := s.GetItem(ctx, table, table.Key("tx-new", "048"))
		require.NoError(t, err)
		assert.Equal(t, store.Item(moved), got)
		_, err = s.GetItem(ctx, table, table.KeyOf(old))
		assert.IsType(t, store.NotFoundError{}, err)
		_, err = s.GetItem(ctx, table, table.KeyOf(marker))
		assert.IsType(t, store.NotFoundError{}, err)

		t.Log("two operations on one key cancel the whole transaction")
		again := review("tx-twice", "048")
		err = s.TransactWrite(ctx, []store.WriteOp{
			store.PutOp(table, again),
			store.DeleteOp(table, table.KeyOf(again)),
		})
		require.Error(t, err)
		assert.IsType(t, store.TransactionCanceledError{}, err)
		_, err = s.GetItem(ctx, table, table.KeyOf(again))
		assert.IsType(t, store.NotFoundError{}, err)
	}
}
