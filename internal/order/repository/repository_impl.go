package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/tabresto/fiscal/internal/order/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) orderdomain.Repository {
	return &repository{db: db}
}

func (r *repository) ListPaidOrders(ctx context.Context, merchantID snowflake.ID, from, to time.Time) ([]orderdomain.Order, error) {
	var orders []orderdomain.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("merchant_id = ? AND paid_at >= ? AND paid_at < ?", merchantID, from, to).
		Order("paid_at ASC, id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
