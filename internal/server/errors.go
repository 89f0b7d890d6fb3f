package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/franchisehub/internal/audit/domain"
	"github.com/smallbiznis/franchisehub/internal/authorization"
	compliancedomain "github.com/smallbiznis/franchisehub/internal/compliance/domain"
	"github.com/smallbiznis/franchisehub/internal/lock"
	obligationdomain "github.com/smallbiznis/franchisehub/internal/obligation/domain"
	orderdomain "github.com/smallbiznis/franchisehub/internal/order/domain"
	purchasedomain "github.com/smallbiznis/franchisehub/internal/purchase/domain"
	salesdomain "github.com/smallbiznis/franchisehub/internal/sales/domain"
	"gorm.io/gorm"
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
	Details any               `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

type violationDetails struct {
	CurrentPercentage   string `json:"current_percentage"`
	ProjectedPercentage string `json:"projected_percentage"`
	RequiredPercentage  string `json:"required_percentage"`
	Shortfall           string `json:"shortfall"`
	Currency            string `json:"currency"`
}

type paymentRequiredDetails struct {
	State    string `json:"state"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
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

	var paymentErr *obligationdomain.PaymentRequiredError
	if errors.As(err, &paymentErr) {
		return http.StatusPaymentRequired, errorPayload{
			Type:    "payment_required",
			Message: "entry fee payment required",
			Details: paymentRequiredDetails{
				State:    string(paymentErr.State),
				Amount:   paymentErr.Amount.StringFixed(2),
				Currency: paymentErr.Currency,
			},
		}
	}

	var violation *compliancedomain.ViolationError
	if errors.As(err, &violation) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "compliance_violation",
			Message: "order would breach the mandatory internal purchase ratio",
			Details: violationDetails{
				CurrentPercentage:   violation.CurrentPercentage.StringFixed(2),
				ProjectedPercentage: violation.ProjectedPercentage.StringFixed(2),
				RequiredPercentage:  violation.RequiredPercentage.StringFixed(2),
				Shortfall:           violation.Shortfall.StringFixed(2),
				Currency:            violation.Currency,
			},
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
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, salesdomain.ErrDuplicatePeriod):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, lock.ErrNotAcquired):
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

// classifyErrorForLog feeds the request logger the same taxonomy the client sees.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return payload.Type, err.Error()
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Type
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
		errors.Is(err, auditdomain.ErrInvalidPageToken):
		return true
	case isComplianceValidationError(err),
		isObligationValidationError(err),
		isSalesValidationError(err),
		isOrderValidationError(err):
		return true
	default:
		return false
	}
}

func isComplianceValidationError(err error) bool {
	switch {
	case errors.Is(err, compliancedomain.ErrInvalidFranchise),
		errors.Is(err, compliancedomain.ErrInvalidGranularity),
		errors.Is(err, compliancedomain.ErrInvalidPeriod),
		errors.Is(err, compliancedomain.ErrInvalidOrderValue):
		return true
	default:
		return false
	}
}

func isObligationValidationError(err error) bool {
	switch {
	case errors.Is(err, obligationdomain.ErrInvalidFranchise),
		errors.Is(err, obligationdomain.ErrInvalidKind),
		errors.Is(err, obligationdomain.ErrInvalidPeriod),
		errors.Is(err, obligationdomain.ErrInvalidAmount):
		return true
	default:
		return false
	}
}

func isSalesValidationError(err error) bool {
	switch {
	case errors.Is(err, salesdomain.ErrInvalidFranchise),
		errors.Is(err, salesdomain.ErrInvalidPeriodLabel),
		errors.Is(err, salesdomain.ErrInvalidRevenue),
		errors.Is(err, salesdomain.ErrInvalidOrderCount):
		return true
	default:
		return false
	}
}

func isOrderValidationError(err error) bool {
	switch {
	case errors.Is(err, orderdomain.ErrInvalidFranchise),
		errors.Is(err, orderdomain.ErrEmptyOrder),
		errors.Is(err, orderdomain.ErrInvalidLine),
		errors.Is(err, purchasedomain.ErrInvalidProduct),
		errors.Is(err, purchasedomain.ErrInvalidQuantity),
		errors.Is(err, purchasedomain.ErrInvalidUnitPrice):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, compliancedomain.ErrFranchiseNotFound),
		errors.Is(err, obligationdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
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
	case "empty_order":
		return "order has no lines"
	default:
		return "invalid value"
	}
}
