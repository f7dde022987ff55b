package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/cache"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	taxdomain "github.com/smallbiznis/agrimarket/internal/tax/domain"
	"github.com/smallbiznis/agrimarket/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        taxdomain.Repository
	ReportCache cache.ReportCache `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	genID       *snowflake.Node
	repo        taxdomain.Repository
	reportCache cache.ReportCache
}

func NewService(p serviceParams) taxdomain.Service {
	reportCache := p.ReportCache
	if reportCache == nil {
		reportCache = cache.NewNoopReportCache()
	}
	return &Service{
		log:         p.Log.Named("tax.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		reportCache: reportCache,
	}
}

func (s *Service) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, taxdomain.ErrInvalidOrganization
	}

	filter := taxdomain.ListRequest{
		Name:      strings.TrimSpace(req.Name),
		Code:      strings.TrimSpace(req.Code),
		IsEnabled: req.IsEnabled,
		SortBy:    strings.TrimSpace(req.SortBy),
		OrderBy:   strings.ToLower(strings.TrimSpace(req.OrderBy)),
	}

	items, err := s.repo.List(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]taxdomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req taxdomain.CreateRequest) (*taxdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, taxdomain.ErrInvalidOrganization
	}

	description := strings.TrimSpace(ptrToString(req.Description))
	var descriptionPtr *string
	if description != "" {
		descriptionPtr = &description
	}

	isEnabled := true
	if req.IsEnabled != nil {
		isEnabled = *req.IsEnabled
	}

	now := time.Now().UTC()
	record := &taxdomain.TaxTemplate{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:        strings.TrimSpace(req.Name),
		RatePercent: req.RatePercent,
		Description: descriptionPtr,
		IsEnabled:   isEnabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, taxdomain.ErrDuplicateTaxCode
		}
		return nil, err
	}

	if req.IsDefault {
		if !record.IsEnabled {
			return nil, taxdomain.ErrTemplateDisabled
		}
		if err := s.repo.SetDefault(ctx, orgID, record.ID); err != nil {
			return nil, err
		}
		record.IsDefault = true
	}
	s.reportCache.Invalidate(ctx, orgID)

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req taxdomain.UpdateRequest) (*taxdomain.Response, error) {
	item, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.RatePercent != nil {
		item.RatePercent = *req.RatePercent
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			item.Description = nil
		} else {
			item.Description = &description
		}
	}

	item.UpdatedAt = time.Now().UTC()
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	s.reportCache.Invalidate(ctx, item.OrgID)

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) SetDefault(ctx context.Context, id string) (*taxdomain.Response, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.IsEnabled {
		return nil, taxdomain.ErrTemplateDisabled
	}

	if err := s.repo.SetDefault(ctx, item.OrgID, item.ID); err != nil {
		return nil, err
	}
	item.IsDefault = true
	s.reportCache.Invalidate(ctx, item.OrgID)

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Disable(ctx context.Context, id string) (*taxdomain.Response, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	item.IsEnabled = false
	item.IsDefault = false
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	s.reportCache.Invalidate(ctx, item.OrgID)

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) find(ctx context.Context, id string) (*taxdomain.TaxTemplate, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, taxdomain.ErrInvalidOrganization
	}

	templateID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, orgID, templateID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, taxdomain.ErrNotFound
	}
	return item, nil
}

func toResponse(tmpl *taxdomain.TaxTemplate) taxdomain.Response {
	return taxdomain.Response{
		ID:          tmpl.ID.String(),
		CompanyID:   tmpl.OrgID.String(),
		Code:        tmpl.Code,
		Name:        tmpl.Name,
		RatePercent: tmpl.RatePercent,
		Description: tmpl.Description,
		IsDefault:   tmpl.IsDefault,
		IsEnabled:   tmpl.IsEnabled,
		CreatedAt:   tmpl.CreatedAt,
		UpdatedAt:   tmpl.UpdatedAt,
	}
}

func ptrToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
