package files

import (
	"github.com/smallbiznis/agrimarket/internal/files/repository"
	"github.com/smallbiznis/agrimarket/internal/files/service"
	"go.uber.org/fx"
)

var Module = fx.Module("files.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
