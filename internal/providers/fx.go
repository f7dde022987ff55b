package providers

import (
	"github.com/smallbiznis/agrimarket/internal/providers/pdf"
	"github.com/smallbiznis/agrimarket/internal/providers/xlsx"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	pdf.Module,
	xlsx.Module,
)
