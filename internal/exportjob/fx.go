package exportjob

import (
	"github.com/tabresto/fiscal/internal/exportjob/repository"
	"github.com/tabresto/fiscal/internal/exportjob/service"
	"go.uber.org/fx"
)

var Module = fx.Module("exportjob.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
