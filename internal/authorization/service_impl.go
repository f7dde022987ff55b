package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/agrimarket/internal/audit/domain"
	obscontext "github.com/smallbiznis/agrimarket/internal/observability/context"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleViewer     = "viewer"
	RoleAccountant = "accountant"
	RoleManager    = "manager"
)

const (
	ObjectCustomer     = "customer"
	ObjectSupplier     = "supplier"
	ObjectInvoiceForm  = "invoice_form"
	ObjectSalesInvoice = "sales_invoice"
	ObjectPayment      = "payment"
	ObjectTaxTemplate  = "tax_template"
	ObjectCommission   = "commission"
	ObjectReport       = "report"
	ObjectLedger       = "ledger"
	ObjectFile         = "file"
	ObjectAuditLog     = "audit_log"
	ObjectSettings     = "settings"
)

const (
	ActionView     = "view"
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionSubmit   = "submit"
	ActionCancel   = "cancel"
	ActionDelete   = "delete"
	ActionGenerate = "generate"
	ActionManage   = "manage"
)

var documentObjects = []string{
	ObjectCustomer,
	ObjectSupplier,
	ObjectInvoiceForm,
	ObjectSalesInvoice,
	ObjectPayment,
	ObjectTaxTemplate,
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor Actor, orgID snowflake.ID, object string, action string) error {
	role := strings.ToLower(strings.TrimSpace(actor.Role))
	if role == "" {
		return ErrInvalidActor
	}
	if !knownRole(role) {
		return ErrInvalidRole
	}
	if orgID == 0 {
		return ErrInvalidOrganization
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := actorSubject(actor)
	roleName := "role:" + role
	domain := fmt.Sprintf("company:%s", orgID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("action denied",
			zap.String("subject", subject),
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		s.auditDenied(ctx, orgID, roleName, subject, object, action)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping binds the subject to exactly one role inside the company.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			if _, err := s.enforcer.RemoveGroupingPolicy(params...); err != nil {
				return fmt.Errorf("remove grouping %s -> %s: %w", subject, rule[1], err)
			}
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, orgID snowflake.ID, role, subject, object, action string) {
	if s.auditSvc == nil {
		return
	}
	ctx = orgcontext.WithOrgID(obscontext.WithActorRole(ctx, role), int64(orgID))
	_ = s.auditSvc.AuditLog(ctx, nil, "authorization.denied", "authorization", object, map[string]any{
		"object":  object,
		"action":  action,
		"subject": subject,
	})
}

func actorSubject(actor Actor) string {
	name := strings.TrimSpace(actor.Name)
	if name == "" {
		return "actor:anonymous"
	}
	return "actor:" + strings.ToLower(name)
}

func knownRole(role string) bool {
	switch role {
	case RoleViewer, RoleAccountant, RoleManager:
		return true
	default:
		return false
	}
}

// rolePolicies lists the permissions of each role. Every role holds the
// permissions of the roles before it.
func rolePolicies() map[string][][2]string {
	var viewer [][2]string
	for _, object := range append(documentObjects, ObjectCommission, ObjectReport, ObjectLedger, ObjectFile) {
		viewer = append(viewer, [2]string{object, ActionView})
	}

	accountant := append([][2]string{}, viewer...)
	for _, object := range documentObjects {
		accountant = append(accountant,
			[2]string{object, ActionCreate},
			[2]string{object, ActionUpdate},
		)
	}
	accountant = append(accountant,
		[2]string{ObjectInvoiceForm, ActionSubmit},
		[2]string{ObjectSalesInvoice, ActionSubmit},
		[2]string{ObjectPayment, ActionSubmit},
		[2]string{ObjectCommission, ActionGenerate},
		[2]string{ObjectReport, ActionGenerate},
		[2]string{ObjectLedger, ActionCreate},
	)

	manager := append([][2]string{}, accountant...)
	for _, object := range documentObjects {
		manager = append(manager, [2]string{object, ActionDelete})
	}
	manager = append(manager,
		[2]string{ObjectInvoiceForm, ActionCancel},
		[2]string{ObjectSalesInvoice, ActionCancel},
		[2]string{ObjectPayment, ActionCancel},
		[2]string{ObjectAuditLog, ActionView},
		[2]string{ObjectSettings, ActionManage},
	)

	return map[string][][2]string{
		RoleViewer:     viewer,
		RoleAccountant: accountant,
		RoleManager:    manager,
	}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	for role, policies := range rolePolicies() {
		for _, policy := range policies {
			if _, err := enforcer.AddPolicy("role:"+role, policy[0], policy[1]); err != nil {
				return err
			}
		}
	}
	return nil
}
