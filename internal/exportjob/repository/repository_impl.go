package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	exportdomain "github.com/tabresto/fiscal/internal/exportjob/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) exportdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, job *exportdomain.ExportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*exportdomain.ExportJob, error) {
	var job exportdomain.ExportJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *repository) ListByMerchant(ctx context.Context, merchantID snowflake.ID, cursor snowflake.ID, limit int) ([]exportdomain.ExportJob, error) {
	q := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("id DESC").
		Limit(limit + 1)
	if cursor != 0 {
		// Snowflake IDs are time ordered, so id < cursor means older.
		q = q.Where("id < ?", cursor)
	}

	var jobs []exportdomain.ExportJob
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&exportdomain.ExportArtifact{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&exportdomain.ExportJob{}).Error
	})
}

func (r *repository) ClaimPending(ctx context.Context, limit int, now time.Time) ([]exportdomain.ExportJob, error) {
	if limit <= 0 {
		limit = 10
	}

	var candidates []exportdomain.ExportJob
	q := r.db.WithContext(ctx).
		Where("status = ?", exportdomain.StatusPending).
		Order("created_at ASC, id ASC").
		Limit(limit)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	if err := q.Find(&candidates).Error; err != nil {
		return nil, err
	}

	// Compare-and-swap each claim; a competing worker's claim simply
	// drops the row from our batch.
	claimed := make([]exportdomain.ExportJob, 0, len(candidates))
	for _, job := range candidates {
		res := r.db.WithContext(ctx).
			Model(&exportdomain.ExportJob{}).
			Where("id = ? AND status = ?", job.ID, exportdomain.StatusPending).
			Updates(map[string]any{
				"status":     exportdomain.StatusProcessing,
				"started_at": now,
			})
		if res.Error != nil {
			return claimed, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		job.Status = exportdomain.StatusProcessing
		startedAt := now
		job.StartedAt = &startedAt
		claimed = append(claimed, job)
	}
	return claimed, nil
}

func (r *repository) Complete(ctx context.Context, job *exportdomain.ExportJob, artifact *exportdomain.ExportArtifact) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&exportdomain.ExportJob{}).
			Where("id = ? AND status = ?", job.ID, exportdomain.StatusProcessing).
			Updates(map[string]any{
				"status":       exportdomain.StatusCompleted,
				"output_name":  job.OutputName,
				"output_size":  job.OutputSize,
				"row_count":    job.RowCount,
				"completed_at": job.CompletedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Reaped or deleted while we were serializing; drop the result.
			return nil
		}
		applied = true
		return tx.Create(artifact).Error
	})
	return applied, err
}

func (r *repository) Fail(ctx context.Context, id snowflake.ID, reason string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&exportdomain.ExportJob{}).
		Where("id = ? AND status = ?", id, exportdomain.StatusProcessing).
		Updates(map[string]any{
			"status":         exportdomain.StatusFailed,
			"failure_reason": reason,
			"completed_at":   now,
		}).Error
}

func (r *repository) ReapStuck(ctx context.Context, cutoff time.Time, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&exportdomain.ExportJob{}).
		Where("status = ? AND started_at < ?", exportdomain.StatusProcessing, cutoff).
		Updates(map[string]any{
			"status":         exportdomain.StatusFailed,
			"failure_reason": "timeout",
			"completed_at":   now,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) FindArtifact(ctx context.Context, jobID snowflake.ID) (*exportdomain.ExportArtifact, error) {
	var artifact exportdomain.ExportArtifact
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&artifact).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &artifact, nil
}
