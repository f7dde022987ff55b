package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/agrimarket/internal/audit/domain"
	"github.com/smallbiznis/agrimarket/internal/cache"
	"github.com/smallbiznis/agrimarket/internal/config"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	"github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"github.com/smallbiznis/agrimarket/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Settings    config.SettingsProvider
	AuditSvc    auditdomain.Service `optional:"true"`
	ReportCache cache.ReportCache   `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	settings    config.SettingsProvider
	auditSvc    auditdomain.Service
	reportCache cache.ReportCache
}

func New(p Params) domain.Service {
	reportCache := p.ReportCache
	if reportCache == nil {
		reportCache = cache.NewNoopReportCache()
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("party.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		settings:    p.Settings,
		auditSvc:    p.AuditSvc,
		reportCache: reportCache,
	}
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.Customer{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}
	if !money.ValidPercent(req.CommissionPercentage) {
		return domain.Customer{}, domain.ErrInvalidPercentage
	}

	now := time.Now().UTC()
	customer := domain.Customer{
		ID:                   s.genID.Generate(),
		OrgID:                orgID,
		Name:                 name,
		CustomerGroup:        strings.TrimSpace(req.CustomerGroup),
		IsFarmer:             req.IsFarmer,
		IsCustomer:           req.IsCustomer,
		IsPamper:             req.IsPamper,
		CommissionPercentage: req.CommissionPercentage,
		Metadata:             datatypes.JSONMap(req.Metadata),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertCustomer(ctx, tx, &customer); err != nil {
			return err
		}
		return s.audit(ctx, tx, "customer.create", customer.ID, map[string]any{"name": customer.Name})
	})
	if err != nil {
		return domain.Customer{}, err
	}
	s.reportCache.Invalidate(ctx, orgID)
	return customer, nil
}

func (s *Service) GetCustomer(ctx context.Context, id snowflake.ID) (domain.Customer, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	if id == 0 {
		return domain.Customer{}, domain.ErrInvalidID
	}

	customer, err := s.repo.FindCustomer(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return *customer, nil
}

func (s *Service) CustomersByID(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.Customer, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.repo.FindCustomers(ctx, s.db, orgID, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]domain.Customer, len(customers))
	for _, customer := range customers {
		out[customer.ID] = customer
	}
	return out, nil
}

func (s *Service) ListCustomers(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	filter := req.ListCustomerFilter
	filter.Name = strings.TrimSpace(filter.Name)
	filter.CustomerGroup = strings.TrimSpace(filter.CustomerGroup)

	items, err := s.repo.ListCustomers(ctx, s.db, orgID, filter, req.Pagination)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}
	customers, pageInfo := pagination.Page(items, req.Limit(), func(c domain.Customer) int64 { return int64(c.ID) })
	return domain.ListCustomerResponse{PageInfo: pageInfo, Customers: customers}, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id snowflake.ID) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.deleteCustomer(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.reportCache.Invalidate(ctx, orgID)
	return nil
}

func (s *Service) deleteCustomer(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}
	customer, err := s.repo.FindCustomer(ctx, tx, orgID, id)
	if err != nil {
		return err
	}
	if customer == nil {
		return domain.ErrCustomerNotFound
	}

	inUse, err := s.repo.CountActivePostings(ctx, tx, orgID, domain.PartyTypeCustomer, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return domain.ErrCustomerInUse
	}

	if err := s.repo.DeleteCustomer(ctx, tx, orgID, id); err != nil {
		return err
	}
	return s.audit(ctx, tx, "customer.delete", id, map[string]any{"name": customer.Name})
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.CreateSupplierRequest) (domain.Supplier, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.Supplier{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Supplier{}, domain.ErrInvalidName
	}
	if !money.ValidPercent(req.CommissionPercentage) {
		return domain.Supplier{}, domain.ErrInvalidPercentage
	}

	group := strings.TrimSpace(req.RelatedCustomerGroup)
	if group == "" {
		group = s.settings.Get().DefaultCustomerGroup
	}

	now := time.Now().UTC()
	supplier := domain.Supplier{
		ID:                   s.genID.Generate(),
		OrgID:                orgID,
		Name:                 name,
		SupplierGroup:        strings.TrimSpace(req.SupplierGroup),
		CommissionPercentage: req.CommissionPercentage,
		RelatedCustomerGroup: group,
		Metadata:             datatypes.JSONMap(req.Metadata),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	customer := domain.Customer{
		ID:                   s.genID.Generate(),
		OrgID:                orgID,
		Name:                 name,
		CustomerGroup:        group,
		IsFarmer:             true,
		CommissionPercentage: req.CommissionPercentage,
		Metadata:             datatypes.JSONMap{"supplier_id": supplier.ID.String()},
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertSupplier(ctx, tx, &supplier); err != nil {
			return err
		}
		if err := s.repo.InsertCustomer(ctx, tx, &customer); err != nil {
			return err
		}
		if err := s.repo.LinkRelatedCustomer(ctx, tx, orgID, supplier.ID, customer.ID, group); err != nil {
			return err
		}
		return s.audit(ctx, tx, "supplier.create", supplier.ID, map[string]any{
			"name":                supplier.Name,
			"related_customer_id": customer.ID.String(),
		})
	})
	if err != nil {
		return domain.Supplier{}, err
	}

	supplier.RelatedCustomerID = &customer.ID
	s.reportCache.Invalidate(ctx, orgID)
	s.log.Info("supplier created",
		zap.String("supplier_id", supplier.ID.String()),
		zap.String("related_customer_id", customer.ID.String()),
	)
	return supplier, nil
}

func (s *Service) GetSupplier(ctx context.Context, id snowflake.ID) (domain.Supplier, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.Supplier{}, err
	}
	if id == 0 {
		return domain.Supplier{}, domain.ErrInvalidID
	}

	supplier, err := s.repo.FindSupplier(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Supplier{}, err
	}
	if supplier == nil {
		return domain.Supplier{}, domain.ErrSupplierNotFound
	}
	return *supplier, nil
}

func (s *Service) SuppliersByID(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.Supplier, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.repo.FindSuppliers(ctx, s.db, orgID, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]domain.Supplier, len(suppliers))
	for _, supplier := range suppliers {
		out[supplier.ID] = supplier
	}
	return out, nil
}

func (s *Service) ListSuppliers(ctx context.Context, req domain.ListSupplierRequest) (domain.ListSupplierResponse, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.ListSupplierResponse{}, err
	}

	filter := req.ListSupplierFilter
	filter.Name = strings.TrimSpace(filter.Name)
	filter.SupplierGroup = strings.TrimSpace(filter.SupplierGroup)

	items, err := s.repo.ListSuppliers(ctx, s.db, orgID, filter, req.Pagination)
	if err != nil {
		return domain.ListSupplierResponse{}, err
	}
	suppliers, pageInfo := pagination.Page(items, req.Limit(), func(s domain.Supplier) int64 { return int64(s.ID) })
	return domain.ListSupplierResponse{PageInfo: pageInfo, Suppliers: suppliers}, nil
}

func (s *Service) UpdateSupplierCommission(ctx context.Context, id snowflake.ID, pct decimal.Decimal) (domain.Supplier, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.Supplier{}, err
	}
	if !money.ValidPercent(pct) {
		return domain.Supplier{}, domain.ErrInvalidPercentage
	}

	var updated domain.Supplier
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supplier, err := s.repo.FindSupplier(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if supplier == nil {
			return domain.ErrSupplierNotFound
		}
		if err := s.repo.UpdateSupplierCommission(ctx, tx, orgID, id, pct); err != nil {
			return err
		}
		if supplier.RelatedCustomerID != nil {
			if err := s.repo.UpdateCustomerCommission(ctx, tx, orgID, *supplier.RelatedCustomerID, pct); err != nil {
				return err
			}
		}
		supplier.CommissionPercentage = pct
		updated = *supplier
		return s.audit(ctx, tx, "supplier.update_commission", id, map[string]any{"commission_percentage": pct.String()})
	})
	if err != nil {
		return domain.Supplier{}, err
	}
	s.reportCache.Invalidate(ctx, orgID)
	return updated, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id snowflake.ID) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supplier, err := s.repo.FindSupplier(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if supplier == nil {
			return domain.ErrSupplierNotFound
		}

		inUse, err := s.repo.CountActivePostings(ctx, tx, orgID, domain.PartyTypeSupplier, id)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return domain.ErrSupplierInUse
		}

		if supplier.RelatedCustomerID != nil {
			err := s.deleteCustomer(ctx, tx, *supplier.RelatedCustomerID)
			if err != nil && !errors.Is(err, domain.ErrCustomerNotFound) {
				return err
			}
		}
		if err := s.repo.DeleteSupplier(ctx, tx, orgID, id); err != nil {
			return err
		}
		return s.audit(ctx, tx, "supplier.delete", id, map[string]any{"name": supplier.Name})
	})
	if err != nil {
		return err
	}
	s.reportCache.Invalidate(ctx, orgID)
	return nil
}

func (s *Service) SupplierCommissionPercentage(ctx context.Context, id snowflake.ID) (decimal.Decimal, error) {
	supplier, err := s.GetSupplier(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return supplier.CommissionPercentage, nil
}

func (s *Service) audit(ctx context.Context, tx *gorm.DB, action string, id snowflake.ID, metadata map[string]any) error {
	if s.auditSvc == nil {
		return nil
	}
	targetType := strings.SplitN(action, ".", 2)[0]
	return s.auditSvc.AuditLog(ctx, tx, action, targetType, id.String(), metadata)
}

func orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}

func uniqueIDs(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
