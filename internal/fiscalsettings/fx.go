package fiscalsettings

import (
	"github.com/tabresto/fiscal/internal/fiscalsettings/repository"
	"github.com/tabresto/fiscal/internal/fiscalsettings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("fiscalsettings.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
