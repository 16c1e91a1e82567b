package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) settingsdomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByMerchant(ctx context.Context, merchantID snowflake.ID) (*settingsdomain.FiscalSettings, error) {
	var settings settingsdomain.FiscalSettings
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		First(&settings).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *repository) Create(ctx context.Context, settings *settingsdomain.FiscalSettings) error {
	return r.db.WithContext(ctx).Create(settings).Error
}

func (r *repository) Update(ctx context.Context, settings *settingsdomain.FiscalSettings) error {
	return r.db.WithContext(ctx).
		Model(&settingsdomain.FiscalSettings{}).
		Where("merchant_id = ?", settings.MerchantID).
		Updates(map[string]any{
			"siret":                 settings.SIRET,
			"vat_number":            settings.VATNumber,
			"naf_code":              settings.NAFCode,
			"invoice_prefix":        settings.InvoicePrefix,
			"yearly_number_reset":   settings.YearlyNumberReset,
			"vat_regime":            settings.VATRegime,
			"default_export_format": settings.DefaultExportFormat,
			"updated_at":            settings.UpdatedAt,
		}).Error
}
