package main

import (
	"flag"
	"os"

	"github.com/IntelliLead/review-migrations/migration"
	"github.com/IntelliLead/review-migrations/runner"
)

var (
	dryRun    = flag.Bool("dry-run", false, "log the mutations instead of writing them")
	cacheSize = flag.Int("cache-size", migration.DefaultUserCacheSize, "number of users kept in memory")
)

func main() {
	flag.Parse()
	plan := migration.Plan{Migrations: []migration.PlanEntry{{Name: "migrate-google", CacheSize: *cacheSize}}}
	os.Exit(runner.Main(plan, *dryRun))
}
