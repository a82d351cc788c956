package main

import (
	"flag"
	"log"
	"os"

	"github.com/IntelliLead/review-migrations/migration"
	"github.com/IntelliLead/review-migrations/runner"
)

var (
	dryRun     = flag.Bool("dry-run", false, "log the mutations instead of writing them")
	policy     = flag.String("policy", "restart", "numbering policy, \"restart\" renumbers every review and \"resume\" keeps the first 62 ids of each owner")
	ownerTable = flag.String("owner-table", "user", "table the review owners are listed from, \"user\" or \"business\"")
)

func main() {
	flag.Parse()
	entry := migration.PlanEntry{Name: "consolidate-review-ids", Policy: *policy, OwnerTable: *ownerTable}
	if _, err := migration.Build(entry); err != nil {
		log.Fatal(err)
	}
	os.Exit(runner.Main(migration.Plan{Migrations: []migration.PlanEntry{entry}}, *dryRun))
}
