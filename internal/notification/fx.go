package notification

import (
	"github.com/AdrianEnev/Van-Manager/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification",
	fx.Provide(service.New),
)
