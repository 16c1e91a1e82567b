package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	recapdomain "github.com/tabresto/fiscal/internal/recap/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) recapdomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByPeriod(ctx context.Context, merchantID snowflake.ID, year, month int) (*recapdomain.RecapitulatifTVA, error) {
	var recap recapdomain.RecapitulatifTVA
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND year = ? AND month = ?", merchantID, year, month).
		First(&recap).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &recap, nil
}

func (r *repository) Replace(ctx context.Context, recap *recapdomain.RecapitulatifTVA) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("merchant_id = ? AND year = ? AND month = ?",
			recap.MerchantID, recap.Year, recap.Month).
			Delete(&recapdomain.RecapitulatifTVA{}).Error
		if err != nil {
			return err
		}
		return tx.Create(recap).Error
	})
}
