package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/tabresto/fiscal/internal/clock"
	exportdomain "github.com/tabresto/fiscal/internal/exportjob/domain"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	"github.com/tabresto/fiscal/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ServiceParam struct {
	fx.In

	Jobs     exportdomain.Repository
	Settings settingsdomain.Repository
	GenID    *snowflake.Node
	Clock    clock.Clock
	Log      *zap.Logger
}

type service struct {
	jobs     exportdomain.Repository
	settings settingsdomain.Repository
	genID    *snowflake.Node
	clock    clock.Clock
	log      *zap.Logger
}

func NewService(p ServiceParam) exportdomain.Service {
	return &service{
		jobs:     p.Jobs,
		settings: p.Settings,
		genID:    p.GenID,
		clock:    p.Clock,
		log:      p.Log.Named("exportjob"),
	}
}

func (s *service) Create(ctx context.Context, req exportdomain.CreateRequest) (*exportdomain.Response, error) {
	merchantID, err := parseID(req.MerchantID, exportdomain.ErrInvalidMerchant)
	if err != nil {
		return nil, err
	}

	format, ok := exportdomain.ParseFormat(req.Format)
	if !ok {
		return nil, exportdomain.ErrUnsupportedFormat
	}

	now := s.clock.Now()
	if !req.PeriodStart.Before(req.PeriodEnd) {
		return nil, exportdomain.ErrInvalidPeriod
	}
	if req.PeriodStart.After(now) {
		return nil, exportdomain.ErrInvalidPeriod
	}

	settings, err := s.settings.FindByMerchant(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, settingsdomain.ErrNotFound
	}
	if format == exportdomain.FormatFEC && strings.TrimSpace(settings.SIRET) == "" {
		return nil, exportdomain.ErrMissingSIRET
	}

	encoding := strings.ToLower(strings.TrimSpace(req.Encoding))
	switch encoding {
	case "", "utf-8", "iso-8859-15":
	default:
		return nil, exportdomain.ErrUnsupportedEncoding
	}

	job := &exportdomain.ExportJob{
		ID:          s.genID.Generate(),
		MerchantID:  merchantID,
		Format:      format,
		Status:      exportdomain.StatusPending,
		PeriodStart: req.PeriodStart.UTC(),
		PeriodEnd:   req.PeriodEnd.UTC(),
		Options:     datatypes.JSONMap{"include_details": req.IncludeDetails, "encoding": encoding},
		CreatedAt:   now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	s.log.Info("created export job",
		zap.String("job_id", job.ID.String()),
		zap.String("merchant_id", req.MerchantID),
		zap.String("format", string(format)),
	)
	return toResponse(job), nil
}

func (s *service) Get(ctx context.Context, id string) (*exportdomain.Response, error) {
	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(job), nil
}

func (s *service) List(ctx context.Context, merchantID string, page pagination.Pagination) (*exportdomain.ListResponse, error) {
	mid, err := parseID(merchantID, exportdomain.ErrInvalidMerchant)
	if err != nil {
		return nil, err
	}

	limit := page.Limit()

	var cursor snowflake.ID
	if page.PageToken != "" {
		decoded, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, exportdomain.ErrInvalidPageToken
		}
		cursor, err = snowflake.ParseString(decoded.ID)
		if err != nil {
			return nil, exportdomain.ErrInvalidPageToken
		}
	}

	jobs, err := s.jobs.ListByMerchant(ctx, mid, cursor, limit)
	if err != nil {
		return nil, err
	}

	pageInfo := &pagination.PageInfo{}
	if len(jobs) > limit {
		jobs = jobs[:limit]
		pageInfo.HasMore = true
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: jobs[len(jobs)-1].ID.String()})
		if err != nil {
			return nil, err
		}
		pageInfo.NextPageToken = token
	}

	out := make([]*exportdomain.Response, 0, len(jobs))
	for i := range jobs {
		out = append(out, toResponse(&jobs[i]))
	}
	return &exportdomain.ListResponse{Jobs: out, PageInfo: pageInfo}, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	job, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, job.ID); err != nil {
		return err
	}
	s.log.Info("deleted export job",
		zap.String("job_id", job.ID.String()),
		zap.String("status", string(job.Status)),
	)
	return nil
}

func (s *service) Download(ctx context.Context, id string) (*exportdomain.Download, error) {
	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case exportdomain.StatusPending, exportdomain.StatusProcessing:
		return nil, exportdomain.ErrNotReady
	case exportdomain.StatusFailed:
		return nil, fmt.Errorf("%w: %s", exportdomain.ErrNotCompleted, job.FailureReason)
	}

	artifact, err := s.jobs.FindArtifact(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, exportdomain.ErrNotFound
	}
	return &exportdomain.Download{
		Filename:    job.OutputName,
		ContentType: artifact.ContentType,
		Data:        artifact.Data,
	}, nil
}

func (s *service) find(ctx context.Context, id string) (*exportdomain.ExportJob, error) {
	jobID, err := parseID(id, exportdomain.ErrNotFound)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, exportdomain.ErrNotFound
	}
	return job, nil
}

func parseID(raw string, onInvalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, onInvalid
	}
	return id, nil
}

func toResponse(j *exportdomain.ExportJob) *exportdomain.Response {
	return &exportdomain.Response{
		ID:             j.ID.String(),
		MerchantID:     j.MerchantID.String(),
		Format:         j.Format,
		Status:         j.Status,
		PeriodStart:    j.PeriodStart,
		PeriodEnd:      j.PeriodEnd,
		OutputName:     j.OutputName,
		OutputSize:     j.OutputSize,
		RowCount:       j.RowCount,
		FailureReason:  j.FailureReason,
		IncludeDetails: j.IncludeDetails(),
		CreatedAt:      j.CreatedAt,
		StartedAt:      j.StartedAt,
		CompletedAt:    j.CompletedAt,
	}
}
