// Package worker processes pending export jobs to a terminal state.
package worker

import (
	"context"
	"time"

	"github.com/tabresto/fiscal/internal/clock"
	"github.com/tabresto/fiscal/internal/config"
	exportdomain "github.com/tabresto/fiscal/internal/exportjob/domain"
	"github.com/tabresto/fiscal/internal/exportjob/serializer"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	"github.com/tabresto/fiscal/internal/observability/metrics"
	orderdomain "github.com/tabresto/fiscal/internal/order/domain"
	"github.com/tabresto/fiscal/internal/tax"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Jobs     exportdomain.Repository
	Orders   orderdomain.Repository
	Settings settingsdomain.Repository
	Policy   *config.FiscalPolicyHolder
	Metrics  *metrics.Metrics `optional:"true"`
	Clock    clock.Clock
	Log      *zap.Logger
	Config   Config `optional:"true"`
}

type Worker struct {
	jobs     exportdomain.Repository
	orders   orderdomain.Repository
	settings settingsdomain.Repository
	policy   *config.FiscalPolicyHolder
	metrics  *metrics.Metrics
	clock    clock.Clock
	log      *zap.Logger
	cfg      Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		jobs:     p.Jobs,
		orders:   p.Orders,
		settings: p.Settings,
		policy:   p.Policy,
		metrics:  p.Metrics,
		clock:    p.Clock,
		log:      p.Log.Named("export.worker"),
		cfg:      p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("export run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce reaps stuck jobs, then claims and processes one batch.
func (w *Worker) RunOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	now := w.clock.Now()
	reaped, err := w.jobs.ReapStuck(ctx, now.Add(-w.cfg.ProcessingTimeout), now)
	if err != nil {
		return err
	}
	if reaped > 0 {
		w.log.Warn("reaped stuck export jobs", zap.Int64("count", reaped))
	}

	claimed, err := w.jobs.ClaimPending(ctx, w.cfg.BatchSize, now)
	if err != nil {
		return err
	}

	for i := range claimed {
		w.process(ctx, &claimed[i])
	}
	return nil
}

// process serializes one claimed job to completed or failed. Serialization
// runs to completion once started; there are no partial artifacts.
func (w *Worker) process(ctx context.Context, job *exportdomain.ExportJob) {
	started := w.clock.Now()
	output, err := w.serialize(ctx, job)
	if err != nil {
		w.fail(ctx, job, err)
		return
	}

	completedAt := w.clock.Now()
	job.OutputName = output.Filename
	job.OutputSize = int64(len(output.Data))
	job.RowCount = output.RowCount
	job.CompletedAt = &completedAt

	artifact := &exportdomain.ExportArtifact{
		JobID:       job.ID,
		ContentType: output.ContentType,
		Data:        output.Data,
		CreatedAt:   completedAt,
	}
	applied, err := w.jobs.Complete(ctx, job, artifact)
	if err != nil {
		w.fail(ctx, job, err)
		return
	}
	if !applied {
		w.log.Warn("export job left processing mid-serialization, result dropped",
			zap.String("job_id", job.ID.String()),
			zap.String("format", string(job.Format)),
		)
		return
	}

	w.metrics.IncExportJob(ctx, string(job.Format), "completed")
	w.metrics.ObserveExportDuration(ctx, string(job.Format), completedAt.Sub(started))
	w.log.Info("completed export job",
		zap.String("job_id", job.ID.String()),
		zap.String("format", string(job.Format)),
		zap.String("output", output.Filename),
		zap.Int64("rows", output.RowCount),
	)
}

func (w *Worker) serialize(ctx context.Context, job *exportdomain.ExportJob) (serializer.Output, error) {
	settings, err := w.settings.FindByMerchant(ctx, job.MerchantID)
	if err != nil {
		return serializer.Output{}, err
	}
	if settings == nil {
		return serializer.Output{}, settingsdomain.ErrNotFound
	}

	orders, err := w.orders.ListPaidOrders(ctx, job.MerchantID, job.PeriodStart, job.PeriodEnd)
	if err != nil {
		return serializer.Output{}, err
	}

	policy := w.policy.Current()
	defaultRate, ok := tax.RateFromFraction(policy.DefaultRate)
	if !ok {
		defaultRate = tax.RateStandard
	}

	rows, fallbacks, err := serializer.BuildRows(orders, defaultRate, tax.NewRateSet(policy.Rates))
	if err != nil {
		return serializer.Output{}, err
	}
	if fallbacks > 0 {
		w.metrics.IncDefaultRateFallback(ctx, job.MerchantID.String())
		w.log.Warn("export computed lines at default vat rate",
			zap.String("job_id", job.ID.String()),
			zap.Int("lines", fallbacks),
		)
	}

	s, err := serializer.ForFormat(job.Format)
	if err != nil {
		return serializer.Output{}, err
	}

	return s.Serialize(ctx, serializer.Input{
		Settings:       settings,
		Policy:         policy,
		PeriodStart:    job.PeriodStart,
		PeriodEnd:      job.PeriodEnd,
		Orders:         rows,
		IncludeDetails: job.IncludeDetails(),
		Encoding:       job.Encoding(),
	})
}

func (w *Worker) fail(ctx context.Context, job *exportdomain.ExportJob, cause error) {
	w.metrics.IncExportJob(ctx, string(job.Format), "failed")
	w.log.Error("export job failed",
		zap.String("job_id", job.ID.String()),
		zap.String("format", string(job.Format)),
		zap.Error(cause),
	)
	if err := w.jobs.Fail(ctx, job.ID, cause.Error(), w.clock.Now()); err != nil {
		w.log.Error("could not mark export job failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
}
