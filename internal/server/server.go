package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/agrimarket/internal/audit"
	auditdomain "github.com/smallbiznis/agrimarket/internal/audit/domain"
	"github.com/smallbiznis/agrimarket/internal/authorization"
	"github.com/smallbiznis/agrimarket/internal/cache"
	"github.com/smallbiznis/agrimarket/internal/commission"
	commissiondomain "github.com/smallbiznis/agrimarket/internal/commission/domain"
	"github.com/smallbiznis/agrimarket/internal/config"
	"github.com/smallbiznis/agrimarket/internal/files"
	filesdomain "github.com/smallbiznis/agrimarket/internal/files/domain"
	"github.com/smallbiznis/agrimarket/internal/invoiceform"
	invoiceformdomain "github.com/smallbiznis/agrimarket/internal/invoiceform/domain"
	"github.com/smallbiznis/agrimarket/internal/ledger"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	"github.com/smallbiznis/agrimarket/internal/naming"
	"github.com/smallbiznis/agrimarket/internal/observability"
	obslogger "github.com/smallbiznis/agrimarket/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/agrimarket/internal/observability/metrics"
	obstracing "github.com/smallbiznis/agrimarket/internal/observability/tracing"
	"github.com/smallbiznis/agrimarket/internal/party"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/internal/payment"
	paymentdomain "github.com/smallbiznis/agrimarket/internal/payment/domain"
	"github.com/smallbiznis/agrimarket/internal/providers"
	"github.com/smallbiznis/agrimarket/internal/ratelimit"
	"github.com/smallbiznis/agrimarket/internal/report"
	reportdomain "github.com/smallbiznis/agrimarket/internal/report/domain"
	"github.com/smallbiznis/agrimarket/internal/salesinvoice"
	salesinvoicedomain "github.com/smallbiznis/agrimarket/internal/salesinvoice/domain"
	"github.com/smallbiznis/agrimarket/internal/tax"
	taxdomain "github.com/smallbiznis/agrimarket/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	naming.Module,
	cache.Module,
	ratelimit.Module,
	providers.Module,
	files.Module,
	party.Module,
	ledger.Module,
	tax.Module,
	invoiceform.Module,
	salesinvoice.Module,
	payment.Module,
	commission.Module,
	report.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log, obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if httpMetrics != nil {
		r.Use(httpMetrics.GinMiddleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if obsCfg.PrometheusEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, log *zap.Logger) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics, log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	partySvc        partydomain.Service
	ledgerSvc       ledgerdomain.Service
	taxSvc          taxdomain.Service
	invoiceFormSvc  invoiceformdomain.Service
	salesInvoiceSvc salesinvoicedomain.Service
	paymentSvc      paymentdomain.Service
	commissionSvc   commissiondomain.Service
	reportSvc       reportdomain.Service
	filesSvc        filesdomain.Service
	limiter         *ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	PartySvc        partydomain.Service
	LedgerSvc       ledgerdomain.Service
	TaxSvc          taxdomain.Service
	InvoiceFormSvc  invoiceformdomain.Service
	SalesInvoiceSvc salesinvoicedomain.Service
	PaymentSvc      paymentdomain.Service
	CommissionSvc   commissiondomain.Service
	ReportSvc       reportdomain.Service
	FilesSvc        filesdomain.Service
	Limiter         *ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("http.server"),
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		partySvc:        p.PartySvc,
		ledgerSvc:       p.LedgerSvc,
		taxSvc:          p.TaxSvc,
		invoiceFormSvc:  p.InvoiceFormSvc,
		salesInvoiceSvc: p.SalesInvoiceSvc,
		paymentSvc:      p.PaymentSvc,
		commissionSvc:   p.CommissionSvc,
		reportSvc:       p.ReportSvc,
		filesSvc:        p.FilesSvc,
		limiter:         p.Limiter,
	}

	svc.RegisterRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api", s.CompanyScope(), s.ActorContext())

	customers := api.Group("/customers")
	{
		customers.POST("", s.authorize(authorization.ObjectCustomer, authorization.ActionCreate), s.CreateCustomer)
		customers.GET("", s.authorize(authorization.ObjectCustomer, authorization.ActionView), s.ListCustomers)
		customers.GET("/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionView), s.GetCustomer)
		customers.DELETE("/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionDelete), s.DeleteCustomer)
	}

	suppliers := api.Group("/suppliers")
	{
		suppliers.POST("", s.authorize(authorization.ObjectSupplier, authorization.ActionCreate), s.CreateSupplier)
		suppliers.GET("", s.authorize(authorization.ObjectSupplier, authorization.ActionView), s.ListSuppliers)
		suppliers.GET("/:id", s.authorize(authorization.ObjectSupplier, authorization.ActionView), s.GetSupplier)
		suppliers.PATCH("/:id/commission", s.authorize(authorization.ObjectSupplier, authorization.ActionUpdate), s.UpdateSupplierCommission)
		suppliers.DELETE("/:id", s.authorize(authorization.ObjectSupplier, authorization.ActionDelete), s.DeleteSupplier)
	}

	forms := api.Group("/invoice-forms")
	{
		forms.POST("", s.authorize(authorization.ObjectInvoiceForm, authorization.ActionCreate), s.CreateInvoiceForm)
		forms.GET("", s.authorize(authorization.ObjectInvoiceForm, authorization.ActionView), s.ListInvoiceForms)
		forms.GET("/:id", s.authorize(authorization.ObjectInvoiceForm, authorization.ActionView), s.GetInvoiceForm)
		forms.GET("/:id/pdf", s.authorize(authorization.ObjectInvoiceForm, authorization.ActionView), s.InvoiceFormPDF)
		forms.PUT("/:id", s.authorize(authorization.ObjectInvoiceForm, authorization.ActionUpdate), s.UpdateInvoiceForm)
		forms.POST("/:id/submit", s.authorize(authorization.ObjectInvoiceForm, authorization.ActionSubmit), s.SubmitInvoiceForm)
		forms.POST("/:id/cancel", s.authorize(authorization.ObjectInvoiceForm, authorization.ActionCancel), s.CancelInvoiceForm)
		forms.DELETE("/:id", s.authorize(authorization.ObjectInvoiceForm, authorization.ActionDelete), s.DeleteInvoiceForm)
	}

	salesInvoices := api.Group("/sales-invoices")
	{
		salesInvoices.POST("", s.authorize(authorization.ObjectSalesInvoice, authorization.ActionCreate), s.CreateSalesInvoice)
		salesInvoices.GET("", s.authorize(authorization.ObjectSalesInvoice, authorization.ActionView), s.ListSalesInvoices)
		salesInvoices.GET("/:id", s.authorize(authorization.ObjectSalesInvoice, authorization.ActionView), s.GetSalesInvoice)
		salesInvoices.POST("/:id/submit", s.authorize(authorization.ObjectSalesInvoice, authorization.ActionSubmit), s.SubmitSalesInvoice)
		salesInvoices.POST("/:id/cancel", s.authorize(authorization.ObjectSalesInvoice, authorization.ActionCancel), s.CancelSalesInvoice)
		salesInvoices.DELETE("/:id", s.authorize(authorization.ObjectSalesInvoice, authorization.ActionDelete), s.DeleteSalesInvoice)
	}

	payments := api.Group("/payments")
	{
		payments.POST("", s.authorize(authorization.ObjectPayment, authorization.ActionCreate), s.CreatePayment)
		payments.GET("", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.ListPayments)
		payments.GET("/:id", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.GetPayment)
		payments.POST("/:id/submit", s.authorize(authorization.ObjectPayment, authorization.ActionSubmit), s.SubmitPayment)
		payments.POST("/:id/cancel", s.authorize(authorization.ObjectPayment, authorization.ActionCancel), s.CancelPayment)
		payments.DELETE("/:id", s.authorize(authorization.ObjectPayment, authorization.ActionDelete), s.DeletePayment)
	}

	taxes := api.Group("/tax-templates")
	{
		taxes.POST("", s.authorize(authorization.ObjectTaxTemplate, authorization.ActionCreate), s.CreateTaxTemplate)
		taxes.GET("", s.authorize(authorization.ObjectTaxTemplate, authorization.ActionView), s.ListTaxTemplates)
		taxes.PATCH("/:id", s.authorize(authorization.ObjectTaxTemplate, authorization.ActionUpdate), s.UpdateTaxTemplate)
		taxes.POST("/:id/default", s.authorize(authorization.ObjectTaxTemplate, authorization.ActionUpdate), s.SetDefaultTaxTemplate)
		taxes.POST("/:id/disable", s.authorize(authorization.ObjectTaxTemplate, authorization.ActionDelete), s.DisableTaxTemplate)
	}

	commissions := api.Group("/commissions")
	{
		commissions.GET("/pending", s.authorize(authorization.ObjectCommission, authorization.ActionView), s.ListPendingCommissions)
		commissions.POST("/generate", s.authorize(authorization.ObjectCommission, authorization.ActionGenerate), s.GenerateCommissions)
	}

	reports := api.Group("/reports", s.authorize(authorization.ObjectReport, authorization.ActionView))
	{
		reports.GET("/statement-forms", s.StatementForms)
		reports.GET("/detailed", s.DetailedReport)
		reports.GET("/collection-form", s.CollectionForm)
		reports.GET("/trial-balance", s.TrialBalance)
		reports.GET("/items-list", s.ItemsList)
	}

	api.GET("/accounts", s.authorize(authorization.ObjectLedger, authorization.ActionView), s.ListLedgerAccounts)
	api.GET("/gl-entries", s.authorize(authorization.ObjectLedger, authorization.ActionView), s.ListGLEntries)
	api.POST("/opening-balances", s.authorize(authorization.ObjectLedger, authorization.ActionCreate), s.CreateOpeningBalance)

	api.GET("/files/:id", s.authorize(authorization.ObjectFile, authorization.ActionView), s.DownloadFile)
	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditLogs)
}
