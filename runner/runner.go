// Package runner runs a plan of migrations against DynamoDB with the logging, tracing and AWS
// call accounting every migration binary shares.
package runner

import (
	"context"
	"path"
	"strconv"

	counter "github.com/Clever/aws-sdk-go-counter"
	"github.com/Clever/kayvee-go/v7/logger"
	"github.com/davecgh/go-spew/spew"
	"github.com/kardianos/osext"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/xerrors"

	"github.com/IntelliLead/review-migrations/migration"
	"github.com/IntelliLead/review-migrations/mutation"
	"github.com/IntelliLead/review-migrations/store"
	dynamodbstore "github.com/IntelliLead/review-migrations/store/dynamodb"
)

// Runner runs the migrations of a plan, wave by wave.
type Runner struct {
	Store           store.Store
	Tables          store.TableConfig
	DryRun          bool
	WritesPerSecond float64
	PageSize        int64
	// RunID is attached to every log line of the run.
	RunID string
	// NewLogger returns the logger of one migration. Defaults to a new kayvee logger.
	NewLogger func() logger.KayveeLogger
}

// Run runs every migration of the plan after the migrations it depends on. It stops at the first
// migration that could not run at all; records that failed are only reported.
func (r Runner) Run(ctx context.Context, plan migration.Plan) ([]migration.Report, error) {
	waves, err := plan.Order()
	if err != nil {
		return nil, err
	}

	reports := []migration.Report{}
	for _, wave := range waves {
		for _, m := range wave {
			report, err := r.runOne(ctx, m)
			reports = append(reports, report)
			if err != nil {
				return reports, xerrors.Errorf("%s: %w", m.Name(), err)
			}
		}
	}
	return reports, nil
}

func (r Runner) runOne(ctx context.Context, m migration.Migration) (migration.Report, error) {
	l := r.logger()
	l.AddContext("run-id", r.RunID)
	l.AddContext("migration", m.Name())
	l.AddContext("dry-run", strconv.FormatBool(r.DryRun))
	ctx = logger.NewContext(ctx, l)

	env := migration.Env{
		Store:    r.Store,
		Tables:   r.Tables,
		Applier:  r.applier(),
		PageSize: r.PageSize,
	}
	l.Info("migration-start")
	report, err := m.Run(ctx, env)
	logSummary(l, report)
	if err != nil {
		l.ErrorD("migration-error", logger.M{"error": err.Error()})
	}
	return report, err
}

func (r Runner) applier() mutation.Applier {
	if r.DryRun {
		return mutation.NewDryRun()
	}
	return mutation.NewLive(r.Store, r.WritesPerSecond)
}

func (r Runner) logger() logger.KayveeLogger {
	if r.NewLogger != nil {
		return r.NewLogger()
	}
	return logger.New(appName)
}

// SetupRouting loads kvconfig.yml from next to the executable.
func SetupRouting() error {
	dir, err := osext.ExecutableFolder()
	if err != nil {
		return err
	}
	return logger.SetGlobalRouting(path.Join(dir, "kvconfig.yml"))
}

// Main runs plan against the configured DynamoDB tables and returns the process exit code.
func Main(plan migration.Plan, dryRun bool) int {
	ctx := context.Background()
	c, err := LoadConfig()
	if err != nil {
		log.ErrorD("config-error", logger.M{"error": err.Error()})
		return 1
	}
	if err := SetupRouting(); err != nil {
		log.ErrorD("routing-error", logger.M{"error": err.Error()})
		return 1
	}
	log.InfoD("config", logger.M{"config": spew.Sdump(c), "dry-run": dryRun})

	if c.TracingEnabled {
		shutdown, err := setupTracing(ctx, appName)
		if err != nil {
			log.ErrorD("tracing-error", logger.M{"error": err.Error()})
			return 1
		}
		// ensure traces are finalized when exiting
		defer shutdown(ctx)
	}

	awsCounter := counter.New()
	ddb, err := newDynamoDB(c, awsCounter)
	if err != nil {
		log.ErrorD("aws-session-error", logger.M{"error": err.Error()})
		return 1
	}
	retry := dynamodbstore.DefaultRetryConfig
	retry.MaxRetries = uint64(c.DynamoMaxRetries)

	r := Runner{
		Store:           dynamodbstore.New(ddb, retry),
		Tables:          c.Tables,
		DryRun:          dryRun,
		WritesPerSecond: c.WritesPerSecond,
		PageSize:        c.PageSize,
		RunID:           uuid.NewV4().String(),
	}
	reports, err := r.Run(ctx, plan)
	LogAWSCounts(awsCounter.Counters())
	if err != nil {
		log.ErrorD("run-failed", logger.M{"run-id": r.RunID, "error": err.Error(), "migrations": len(reports)})
		return 1
	}
	log.InfoD("run-complete", logger.M{"run-id": r.RunID, "migrations": len(reports)})
	return 0
}
