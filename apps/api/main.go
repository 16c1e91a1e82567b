package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tabresto/fiscal/internal/clock"
	"github.com/tabresto/fiscal/internal/config"
	"github.com/tabresto/fiscal/internal/exportjob"
	"github.com/tabresto/fiscal/internal/exportjob/worker"
	"github.com/tabresto/fiscal/internal/fiscalsettings"
	"github.com/tabresto/fiscal/internal/locking"
	"github.com/tabresto/fiscal/internal/logger"
	"github.com/tabresto/fiscal/internal/migration"
	"github.com/tabresto/fiscal/internal/observability"
	"github.com/tabresto/fiscal/internal/order"
	"github.com/tabresto/fiscal/internal/recap"
	"github.com/tabresto/fiscal/internal/server"
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
		locking.Module,
		migration.Module,

		// Domain services exposed over HTTP
		fiscalsettings.Module,
		order.Module,
		recap.Module,
		exportjob.Module,
		worker.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(server.RunHTTP),
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
