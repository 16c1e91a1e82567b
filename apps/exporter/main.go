package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tabresto/fiscal/internal/clock"
	"github.com/tabresto/fiscal/internal/config"
	"github.com/tabresto/fiscal/internal/exportjob"
	"github.com/tabresto/fiscal/internal/exportjob/worker"
	"github.com/tabresto/fiscal/internal/fiscalsettings"
	"github.com/tabresto/fiscal/internal/logger"
	"github.com/tabresto/fiscal/internal/migration"
	"github.com/tabresto/fiscal/internal/observability"
	"github.com/tabresto/fiscal/internal/order"
	"github.com/tabresto/fiscal/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		logger.Module,
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Repositories the worker reads from
		fiscalsettings.Module,
		order.Module,
		exportjob.Module,

		// No server module!
		worker.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
