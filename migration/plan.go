package migration

import (
	"fmt"
	"os"
	"strings"

	"github.com/ghodss/yaml"
	"golang.org/x/xerrors"

	"github.com/IntelliLead/review-migrations/toposort"
)

// AllMigrations selects every migration.
const AllMigrations = "all"

// Names lists every migration.
func Names() []string {
	return []string{
		consolidateReviewIDsName,
		backfillBusinessIDsName,
		migrateGoogleName,
		migrateReviewOwnerName,
		shortenBusinessIDsName,
		shortenReviewBusinessIDsName,
	}
}

// PlanEntry selects one migration and its options.
type PlanEntry struct {
	Name string `json:"name"`
	// Policy and OwnerTable apply to consolidate-review-ids.
	Policy     string `json:"policy,omitempty"`
	OwnerTable string `json:"ownerTable,omitempty"`
	// CacheSize applies to migrate-google.
	CacheSize int `json:"cacheSize,omitempty"`
}

// Plan is a set of migrations to run, as read from a plan file.
type Plan struct {
	Migrations []PlanEntry `json:"migrations"`
}

// ParsePlan parses a YAML plan.
func ParsePlan(data []byte) (Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return Plan{}, xerrors.Errorf("parsing plan: %w", err)
	}
	if len(plan.Migrations) == 0 {
		return Plan{}, fmt.Errorf("plan has no migrations")
	}
	return plan, nil
}

// LoadPlan reads and parses a plan file.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, err
	}
	return ParsePlan(data)
}

// PlanFor returns a plan running the named migrations with default options. The single name
// "all" selects every migration.
func PlanFor(names []string) (Plan, error) {
	if len(names) == 1 && names[0] == AllMigrations {
		names = Names()
	}
	plan := Plan{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		plan.Migrations = append(plan.Migrations, PlanEntry{Name: name})
	}
	if len(plan.Migrations) == 0 {
		return Plan{}, fmt.Errorf("no migrations selected")
	}
	return plan, nil
}

// Build returns the migration an entry describes.
func Build(entry PlanEntry) (Migration, error) {
	switch entry.Name {
	case consolidateReviewIDsName:
		policy, err := ParseNumberingPolicy(entry.Policy)
		if err != nil {
			return nil, err
		}
		ownerTable, err := ParseOwnerTable(entry.OwnerTable)
		if err != nil {
			return nil, err
		}
		return ConsolidateReviewIDs{Policy: policy, OwnerTable: ownerTable}, nil
	case backfillBusinessIDsName:
		return BackfillBusinessIDs{}, nil
	case migrateGoogleName:
		return MigrateGoogle{CacheSize: entry.CacheSize}, nil
	case migrateReviewOwnerName:
		return MigrateReviewOwner{}, nil
	case shortenBusinessIDsName:
		return ShortenBusinessIDs{}, nil
	case shortenReviewBusinessIDsName:
		return ShortenReviewBusinessIDs{}, nil
	}
	return nil, fmt.Errorf("unknown migration %q, expected one of %s", entry.Name, strings.Join(Names(), ", "))
}

// Order builds the plan's migrations and returns them in waves: each migration comes after the
// migrations of the plan it depends on. Dependencies outside the plan are assumed to have run.
func (p Plan) Order() ([][]Migration, error) {
	byName := map[string]Migration{}
	for _, entry := range p.Migrations {
		if _, ok := byName[entry.Name]; ok {
			return nil, fmt.Errorf("migration %s is listed twice", entry.Name)
		}
		m, err := Build(entry)
		if err != nil {
			return nil, err
		}
		byName[entry.Name] = m
	}

	deps := map[string][]string{}
	for name, m := range byName {
		deps[name] = []string{}
		for _, dep := range m.DependsOn() {
			if _, ok := byName[dep]; ok {
				deps[name] = append(deps[name], dep)
			}
		}
	}
	waves, err := toposort.Sort(deps)
	if err != nil {
		return nil, err
	}

	ordered := [][]Migration{}
	for _, wave := range waves {
		ms := []Migration{}
		for _, name := range wave {
			ms = append(ms, byName[name])
		}
		ordered = append(ordered, ms)
	}
	return ordered, nil
}
