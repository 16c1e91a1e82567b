package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Repository is the read-only boundary to the order subsystem.
type Repository interface {
	// ListPaidOrders returns all paid orders with their lines for
	// [from, to), ordered by paid_at then id so serializations are
	// deterministic.
	ListPaidOrders(ctx context.Context, merchantID snowflake.ID, from, to time.Time) ([]Order, error)
}
