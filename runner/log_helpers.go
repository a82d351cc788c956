package runner

import (
	counter "github.com/Clever/aws-sdk-go-counter"
	"github.com/Clever/kayvee-go/v7/logger"

	"github.com/IntelliLead/review-migrations/migration"
)

const appName = "review-migrations"

var log = logger.New(appName)

// LogAWSCounts logs the number of calls made per AWS service and operation.
func LogAWSCounts(counts []counter.ServiceCount) {
	for _, count := range counts {
		log.InfoD("aws-sdk-go-counter", logger.M{
			"service":   count.Service,
			"operation": count.Operation,
			"value":     count.Count,
		})
	}
}

func logSummary(l logger.KayveeLogger, report migration.Report) {
	data := report.LogData()
	if err := report.Err(); err != nil {
		data["first-error"] = firstError(report)
	}
	l.InfoD("migration-summary", data)
}

func firstError(report migration.Report) string {
	if report.Errors == nil || len(report.Errors.Errors) == 0 {
		return ""
	}
	return report.Errors.Errors[0].Error()
}
