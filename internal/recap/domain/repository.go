package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	FindByPeriod(ctx context.Context, merchantID snowflake.ID, year, month int) (*RecapitulatifTVA, error)
	// Replace swaps the recap row for its period inside one transaction, so
	// readers see either the old row or the new one, never a mixture.
	Replace(ctx context.Context, recap *RecapitulatifTVA) error
}
