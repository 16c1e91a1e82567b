package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	FindByMerchant(ctx context.Context, merchantID snowflake.ID) (*FiscalSettings, error)
	Create(ctx context.Context, settings *FiscalSettings) error
	Update(ctx context.Context, settings *FiscalSettings) error
}
