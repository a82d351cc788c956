package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/IntelliLead/review-migrations/migration"
	"github.com/IntelliLead/review-migrations/runner"
)

func main() {
	migrations := flag.String("migrations", "", "comma separated migrations to run, or \"all\". One of "+
		strings.Join(migration.Names(), ", "))
	planFile := flag.String("plan", "", "yaml plan file listing the migrations to run and their options")
	dryRun := flag.Bool("dry-run", false, "log the mutations instead of writing them")
	flag.Parse()

	plan, err := loadPlan(*migrations, *planFile)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := plan.Order(); err != nil {
		log.Fatal(err)
	}
	os.Exit(runner.Main(plan, *dryRun))
}

func loadPlan(migrations, planFile string) (migration.Plan, error) {
	switch {
	case migrations != "" && planFile != "":
		log.Fatal("set either -migrations or -plan, not both")
	case planFile != "":
		return migration.LoadPlan(planFile)
	case migrations == "":
		log.Fatal("please set -migrations or -plan")
	}
	return migration.PlanFor(strings.Split(migrations, ","))
}
