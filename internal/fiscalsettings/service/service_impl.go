package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/tabresto/fiscal/internal/clock"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	"github.com/tabresto/fiscal/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Repository settingsdomain.Repository
	GenID      *snowflake.Node
	Clock      clock.Clock
	Log        *zap.Logger
}

type service struct {
	repo  settingsdomain.Repository
	genID *snowflake.Node
	clock clock.Clock
	log   *zap.Logger
}

func NewService(p ServiceParam) settingsdomain.Service {
	return &service{
		repo:  p.Repository,
		genID: p.GenID,
		clock: p.Clock,
		log:   p.Log.Named("fiscalsettings"),
	}
}

func (s *service) GetOrCreate(ctx context.Context, merchantID string) (*settingsdomain.Response, error) {
	id, err := parseMerchantID(merchantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByMerchant(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return toResponse(existing), nil
	}

	// Placeholder row for the setup flow. SIRET stays empty, so the
	// settings are not Configured and cannot back a recap or export yet.
	now := s.clock.Now()
	placeholder := &settingsdomain.FiscalSettings{
		ID:                  s.genID.Generate(),
		MerchantID:          id,
		InvoicePrefix:       "FAC",
		VATRegime:           settingsdomain.RegimeNormal,
		DefaultExportFormat: "csv",
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, placeholder); err != nil {
		return nil, err
	}

	s.log.Info("created placeholder fiscal settings",
		zap.String("merchant_id", merchantID),
	)
	return toResponse(placeholder), nil
}

func (s *service) Get(ctx context.Context, merchantID string) (*settingsdomain.Response, error) {
	id, err := parseMerchantID(merchantID)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByMerchant(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, settingsdomain.ErrNotFound
	}
	return toResponse(existing), nil
}

func (s *service) Create(ctx context.Context, req settingsdomain.CreateRequest) (*settingsdomain.Response, error) {
	id, err := parseMerchantID(req.MerchantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByMerchant(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Configured() {
		return nil, settingsdomain.ErrAlreadyExists
	}

	now := s.clock.Now()
	settings := &settingsdomain.FiscalSettings{
		ID:                  s.genID.Generate(),
		MerchantID:          id,
		SIRET:               req.SIRET,
		VATNumber:           req.VATNumber,
		NAFCode:             req.NAFCode,
		InvoicePrefix:       req.InvoicePrefix,
		VATRegime:           settingsdomain.RegimeNormal,
		DefaultExportFormat: "csv",
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if req.YearlyNumberReset != nil {
		settings.YearlyNumberReset = *req.YearlyNumberReset
	}
	if req.VATRegime != nil {
		settings.VATRegime = settingsdomain.VATRegime(strings.TrimSpace(*req.VATRegime))
	}
	if req.DefaultExportFormat != nil {
		settings.DefaultExportFormat = strings.TrimSpace(*req.DefaultExportFormat)
	}

	if errs := settings.Validate(); len(errs) > 0 {
		return nil, errs
	}

	if existing != nil {
		// Completing a placeholder keeps the original row identity.
		settings.ID = existing.ID
		settings.CreatedAt = existing.CreatedAt
		if err := s.repo.Update(ctx, settings); err != nil {
			return nil, err
		}
		return toResponse(settings), nil
	}

	if err := s.repo.Create(ctx, settings); err != nil {
		// Concurrent create on the same merchant hits the unique index.
		if db.IsDuplicateKeyErr(err) {
			return nil, settingsdomain.ErrAlreadyExists
		}
		return nil, err
	}
	return toResponse(settings), nil
}

func (s *service) Update(ctx context.Context, req settingsdomain.UpdateRequest) (*settingsdomain.Response, error) {
	id, err := parseMerchantID(req.MerchantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByMerchant(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, settingsdomain.ErrNotFound
	}

	merged := *existing
	if req.SIRET != nil {
		merged.SIRET = *req.SIRET
	}
	if req.VATNumber != nil {
		merged.VATNumber = req.VATNumber
	}
	if req.NAFCode != nil {
		merged.NAFCode = req.NAFCode
	}
	if req.InvoicePrefix != nil {
		merged.InvoicePrefix = *req.InvoicePrefix
	}
	if req.YearlyNumberReset != nil {
		merged.YearlyNumberReset = *req.YearlyNumberReset
	}
	if req.VATRegime != nil {
		merged.VATRegime = settingsdomain.VATRegime(strings.TrimSpace(*req.VATRegime))
	}
	if req.DefaultExportFormat != nil {
		merged.DefaultExportFormat = strings.TrimSpace(*req.DefaultExportFormat)
	}

	if errs := merged.Validate(); len(errs) > 0 {
		return nil, errs
	}

	merged.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, &merged); err != nil {
		return nil, err
	}
	return toResponse(&merged), nil
}

func parseMerchantID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, settingsdomain.ErrInvalidMerchant
	}
	return id, nil
}

func toResponse(s *settingsdomain.FiscalSettings) *settingsdomain.Response {
	return &settingsdomain.Response{
		ID:                  s.ID.String(),
		MerchantID:          s.MerchantID.String(),
		SIRET:               s.SIRET,
		VATNumber:           s.VATNumber,
		NAFCode:             s.NAFCode,
		InvoicePrefix:       s.InvoicePrefix,
		YearlyNumberReset:   s.YearlyNumberReset,
		VATRegime:           s.VATRegime,
		DefaultExportFormat: s.DefaultExportFormat,
		Configured:          s.Configured(),
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}
