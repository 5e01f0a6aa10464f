package main

import (
	"github.com/AdrianEnev/Van-Manager/internal/clock"
	"github.com/AdrianEnev/Van-Manager/internal/config"
	"github.com/AdrianEnev/Van-Manager/internal/migration"
	"github.com/AdrianEnev/Van-Manager/internal/notification"
	"github.com/AdrianEnev/Van-Manager/internal/providers/email"
	"github.com/AdrianEnev/Van-Manager/internal/scheduler"
	"github.com/AdrianEnev/Van-Manager/pkg/db"
	"github.com/AdrianEnev/Van-Manager/pkg/log"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		email.Module,
		notification.Module,
		scheduler.Module,
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
