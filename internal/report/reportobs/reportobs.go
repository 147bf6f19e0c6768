package reportobs

import (
	"context"
	"time"

	"odte-trader/internal/interfaces"
	"odte-trader/internal/logger"
	"odte-trader/internal/trace"
)

type observableReporter struct {
	reporter interfaces.Reporter
}

var _ interfaces.Reporter = (*observableReporter)(nil)

func Wrap(r interfaces.Reporter) interfaces.Reporter {
	return &observableReporter{
		reporter: r,
	}
}

func (or *observableReporter) Summarize(journalPath string) (string, error) {
	ctx, span := trace.StartSpan(context.Background(), "report.Summarize")
	defer span.End()

	start := time.Now()

	outPath, err := or.reporter.Summarize(journalPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Daily summary generation failed", err,
			"journal", journalPath,
		)
		return "", err
	}
	if outPath == "" {
		logger.Info(ctx, "No trades in journal, summary skipped",
			"journal", journalPath,
		)
		return "", nil
	}

	logger.Info(ctx, "Daily summary written",
		"journal", journalPath,
		"out_path", outPath,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return outPath, nil
}
