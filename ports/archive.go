package ports

import (
	"context"

	"erhsim/domain/core"
	"erhsim/domain/stats"
)

// RunArchive persists run summaries so runs remain comparable across
// sessions. Implementations must be safe for concurrent use.
type RunArchive interface {
	SaveRun(ctx context.Context, summary stats.RunSummary) error
	GetRun(ctx context.Context, id core.RunID) (*stats.RunSummary, error)
	ListRuns(ctx context.Context, limit int) ([]stats.RunSummary, error)
}
