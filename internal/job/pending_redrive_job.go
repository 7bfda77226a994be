package job

import (
	"context"
	"time"

	"github.com/hearthlabs/hearth/internal/service"
)

const redriveBatchSize = 20

// PendingRedriveJob retries file ingestions left pending by a crash or an
// abandoned upload. Cancellation never writes a terminal status, so
// re-running the pipeline over a pending file is always safe.
type PendingRedriveJob struct {
	ingest *service.IngestService
	maxAge time.Duration
}

func NewPendingRedriveJob(ingest *service.IngestService, maxAge time.Duration) *PendingRedriveJob {
	return &PendingRedriveJob{ingest: ingest, maxAge: maxAge}
}

func (j *PendingRedriveJob) Name() string {
	return "pending_redrive"
}

func (j *PendingRedriveJob) Run(ctx context.Context) error {
	if j.ingest == nil {
		return nil
	}
	return j.ingest.RedrivePending(ctx, j.maxAge, redriveBatchSize)
}
