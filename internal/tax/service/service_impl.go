package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/internal/config"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	taxdomain "github.com/smallbiznis/agrimarket/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type resolverParam struct {
	fx.In

	Log        *zap.Logger
	Repository taxdomain.Repository
	Settings   config.SettingsProvider
}

type resolver struct {
	log      *zap.Logger
	repo     taxdomain.Repository
	settings config.SettingsProvider
}

func NewResolver(p resolverParam) taxdomain.RateResolver {
	return &resolver{
		log:      p.Log.Named("tax.resolver"),
		repo:     p.Repository,
		settings: p.Settings,
	}
}

func (r *resolver) DefaultRate(ctx context.Context) (decimal.Decimal, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return decimal.Zero, taxdomain.ErrInvalidOrganization
	}

	if code := strings.TrimSpace(r.settings.Get().DefaultTax); code != "" {
		tmpl, err := r.repo.FindByCode(ctx, orgID, code)
		if err != nil {
			return decimal.Zero, err
		}
		if tmpl != nil && tmpl.IsEnabled {
			return tmpl.RatePercent, nil
		}
		r.log.Warn("settings tax template unavailable, using company default", zap.String("code", code))
	}

	tmpl, err := r.repo.GetDefault(ctx, orgID)
	if err != nil {
		return decimal.Zero, err
	}
	if tmpl == nil {
		return decimal.Zero, nil
	}
	return tmpl.RatePercent, nil
}
