package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IntelliLead/review-migrations/toposort"
)

func names(waves [][]Migration) [][]string {
	out := [][]string{}
	for _, wave := range waves {
		ns := []string{}
		for _, m := range wave {
			ns = append(ns, m.Name())
		}
		out = append(out, ns)
	}
	return out
}

func TestOrderAll(t *testing.T) {
	plan, err := PlanFor([]string{"all"})
	require.NoError(t, err)
	waves, err := plan.Order()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"backfill-business-ids", "consolidate-review-ids", "migrate-google"},
		{"migrate-review-owner"},
		{"shorten-business-ids", "shorten-review-business-ids"},
	}, names(waves))
}

func TestOrderIgnoresDependenciesOutsideThePlan(t *testing.T) {
	plan, err := PlanFor([]string{"shorten-review-business-ids", "shorten-business-ids", "migrate-google"})
	require.NoError(t, err)
	waves, err := plan.Order()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"migrate-google", "shorten-review-business-ids"},
		{"shorten-business-ids"},
	}, names(waves))
}

func TestOrderRejectsBadPlans(t *testing.T) {
	_, err := Plan{Migrations: []PlanEntry{{Name: "migrate-google"}, {Name: "migrate-google"}}}.Order()
	assert.Error(t, err)

	_, err = Plan{Migrations: []PlanEntry{{Name: "drop-tables"}}}.Order()
	assert.Error(t, err)

	_, err = Plan{Migrations: []PlanEntry{{Name: "consolidate-review-ids", Policy: "sometimes"}}}.Order()
	assert.Error(t, err)

	_, err = PlanFor([]string{" ", ""})
	assert.Error(t, err)
}

func TestParsePlan(t *testing.T) {
	plan, err := ParsePlan([]byte(`
migrations:
  - name: consolidate-review-ids
    policy: resume
    ownerTable: business
  - name: migrate-google
    cacheSize: 10
`))
	require.NoError(t, err)
	waves, err := plan.Order()
	require.NoError(t, err)
	require.Len(t, waves, 1)
	assert.Equal(t, []Migration{
		ConsolidateReviewIDs{Policy: ResumeAfter{Count: DefaultResumeCount}, OwnerTable: OwnerTableBusiness},
		MigrateGoogle{CacheSize: 10},
	}, waves[0])

	_, err = ParsePlan([]byte("migrations: []"))
	assert.Error(t, err)
	_, err = ParsePlan([]byte("migrations: {"))
	assert.Error(t, err)
}

func TestOrderMatchesToposort(t *testing.T) {
	deps := map[string][]string{}
	for _, name := range Names() {
		m, err := Build(PlanEntry{Name: name})
		require.NoError(t, err)
		deps[name] = m.DependsOn()
	}
	expected, err := toposort.Sort(deps)
	require.NoError(t, err)

	plan, err := PlanFor(Names())
	require.NoError(t, err)
	waves, err := plan.Order()
	require.NoError(t, err)
	assert.Equal(t, expected, names(waves))
}
