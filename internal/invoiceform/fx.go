package invoiceform

import (
	"github.com/smallbiznis/agrimarket/internal/invoiceform/repository"
	"github.com/smallbiznis/agrimarket/internal/invoiceform/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoiceform.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
