package order

import (
	"github.com/tabresto/fiscal/internal/order/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("order.reader",
	fx.Provide(repository.NewRepository),
)
