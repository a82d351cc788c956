package mutation

import (
	"context"

	"github.com/Clever/kayvee-go/v7/logger"
)

func logApplied(ctx context.Context, m Mutation) {
	logger.FromContext(ctx).InfoD("mutation-applied", m.LogData())
}

func logDryRun(ctx context.Context, m Mutation) {
	logger.FromContext(ctx).InfoD("dry-run-mutation", m.LogData())
}
