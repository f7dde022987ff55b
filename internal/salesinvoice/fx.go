package salesinvoice

import (
	"github.com/smallbiznis/agrimarket/internal/salesinvoice/repository"
	"github.com/smallbiznis/agrimarket/internal/salesinvoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("salesinvoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
