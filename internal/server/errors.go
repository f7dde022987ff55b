package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/agrimarket/internal/audit/domain"
	"github.com/smallbiznis/agrimarket/internal/authorization"
	commissiondomain "github.com/smallbiznis/agrimarket/internal/commission/domain"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	filesdomain "github.com/smallbiznis/agrimarket/internal/files/domain"
	invoiceformdomain "github.com/smallbiznis/agrimarket/internal/invoiceform/domain"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	paymentdomain "github.com/smallbiznis/agrimarket/internal/payment/domain"
	reportdomain "github.com/smallbiznis/agrimarket/internal/report/domain"
	salesinvoicedomain "github.com/smallbiznis/agrimarket/internal/salesinvoice/domain"
	taxdomain "github.com/smallbiznis/agrimarket/internal/tax/domain"
	"github.com/smallbiznis/agrimarket/pkg/db"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrInvalidCompany     = errors.New("invalid_company")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrTooManyRequests    = errors.New("too_many_requests")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authorization.ErrInvalidActor):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrInvalidRole):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, invoiceformdomain.ErrNoPrintout):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code recorded on request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return payload.Type, "internal_error"
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, err.Error()
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidCompany),
		errors.Is(err, docstatus.ErrInvalidStatus):
		return true
	case isPartyValidationError(err),
		isInvoiceFormValidationError(err),
		isSalesInvoiceValidationError(err),
		isPaymentValidationError(err),
		isTaxValidationError(err),
		isCommissionValidationError(err),
		isLedgerValidationError(err),
		isReportValidationError(err),
		isFileValidationError(err),
		isAuditValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, docstatus.ErrNotDraft),
		errors.Is(err, docstatus.ErrNotSubmitted),
		errors.Is(err, docstatus.ErrNotDeletable),
		errors.Is(err, partydomain.ErrCustomerInUse),
		errors.Is(err, partydomain.ErrSupplierInUse),
		errors.Is(err, invoiceformdomain.ErrHasCommissionInvoices),
		errors.Is(err, commissiondomain.ErrNotPending),
		errors.Is(err, commissiondomain.ErrNoRelatedCustomer),
		errors.Is(err, commissiondomain.ErrGenerationRunning),
		errors.Is(err, taxdomain.ErrDuplicateTaxCode),
		errors.Is(err, taxdomain.ErrTemplateDisabled),
		db.IsDuplicateKeyErr(err):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, docstatus.ErrNotDraft),
		errors.Is(err, docstatus.ErrNotSubmitted),
		errors.Is(err, docstatus.ErrNotDeletable),
		errors.Is(err, partydomain.ErrCustomerInUse),
		errors.Is(err, partydomain.ErrSupplierInUse),
		errors.Is(err, invoiceformdomain.ErrHasCommissionInvoices),
		errors.Is(err, commissiondomain.ErrNotPending),
		errors.Is(err, commissiondomain.ErrNoRelatedCustomer),
		errors.Is(err, commissiondomain.ErrGenerationRunning),
		errors.Is(err, taxdomain.ErrDuplicateTaxCode),
		errors.Is(err, taxdomain.ErrTemplateDisabled):
		return err.Error()
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, partydomain.ErrCustomerNotFound),
		errors.Is(err, partydomain.ErrSupplierNotFound),
		errors.Is(err, invoiceformdomain.ErrNotFound),
		errors.Is(err, salesinvoicedomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, taxdomain.ErrNotFound),
		errors.Is(err, ledgerdomain.ErrAccountNotFound),
		errors.Is(err, reportdomain.ErrPartyNotFound),
		errors.Is(err, reportdomain.ErrNoData),
		errors.Is(err, filesdomain.ErrNotFound),
		db.IsNotFound(err):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

// isAny reports whether err matches one of the targets.
func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isAuditValidationError(err error) bool {
	return isAny(err,
		auditdomain.ErrInvalidOrganization,
		auditdomain.ErrInvalidPageToken,
		auditdomain.ErrInvalidTimeRange,
		auditdomain.ErrInvalidAction,
	)
}
