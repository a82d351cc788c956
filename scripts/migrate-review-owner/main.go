package main

import (
	"flag"
	"os"

	"github.com/IntelliLead/review-migrations/migration"
	"github.com/IntelliLead/review-migrations/runner"
)

var dryRun = flag.Bool("dry-run", false, "log the mutations instead of writing them")

func main() {
	flag.Parse()
	plan := migration.Plan{Migrations: []migration.PlanEntry{{Name: "migrate-review-owner"}}}
	os.Exit(runner.Main(plan, *dryRun))
}
