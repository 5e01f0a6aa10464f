package migration

import (
	chargedomain "github.com/AdrianEnev/Van-Manager/internal/charge/domain"
	"github.com/AdrianEnev/Van-Manager/internal/config"
	notificationdomain "github.com/AdrianEnev/Van-Manager/internal/notification/domain"
	plandomain "github.com/AdrianEnev/Van-Manager/internal/plan/domain"
	userdomain "github.com/AdrianEnev/Van-Manager/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned SQL migrations target postgres; other backends (sqlite
		// for local runs) fall back to schema sync from the models.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&userdomain.User{},
				&plandomain.Plan{},
				&chargedomain.Charge{},
				&notificationdomain.Notification{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
