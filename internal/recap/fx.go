package recap

import (
	"github.com/tabresto/fiscal/internal/recap/repository"
	"github.com/tabresto/fiscal/internal/recap/service"
	"go.uber.org/fx"
)

var Module = fx.Module("recap.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
