package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, job *ExportJob) error
	FindByID(ctx context.Context, id snowflake.ID) (*ExportJob, error)
	// ListByMerchant returns up to limit+1 jobs newest first, starting
	// strictly after the cursor ID when non-zero. The extra row lets the
	// caller build a next-page token.
	ListByMerchant(ctx context.Context, merchantID snowflake.ID, cursor snowflake.ID, limit int) ([]ExportJob, error)
	// Delete removes the job and its artifact in one transaction. Allowed
	// from any state; deleting a processing job abandons its result.
	Delete(ctx context.Context, id snowflake.ID) error

	// ClaimPending moves up to limit pending jobs to processing and
	// returns them. Each claim is a compare-and-swap on the status so two
	// workers never process the same job.
	ClaimPending(ctx context.Context, limit int, now time.Time) ([]ExportJob, error)
	// Complete stores the artifact and marks the job completed in one
	// transaction. It reports false without error when the job already
	// left processing (reaped or deleted) and the result was dropped.
	Complete(ctx context.Context, job *ExportJob, artifact *ExportArtifact) (bool, error)
	// Fail marks a processing job failed with a reason.
	Fail(ctx context.Context, id snowflake.ID, reason string, now time.Time) error
	// ReapStuck fails every job processing since before cutoff, returning
	// how many were reaped.
	ReapStuck(ctx context.Context, cutoff time.Time, now time.Time) (int64, error)

	FindArtifact(ctx context.Context, jobID snowflake.ID) (*ExportArtifact, error)
}
