package payment

import (
	"github.com/smallbiznis/agrimarket/internal/payment/repository"
	"github.com/smallbiznis/agrimarket/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
