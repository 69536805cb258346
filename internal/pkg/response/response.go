package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"wellness/internal/domain"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

type mapping struct {
	err    error
	status int
	code   string
}

var domainErrors = []mapping{
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domain.ErrInvalidStateTransition, http.StatusConflict, "INVALID_STATE_TRANSITION"},
	{domain.ErrConflictingTransition, http.StatusConflict, "CONFLICTING_TRANSITION"},
	{domain.ErrSlotUnavailable, http.StatusConflict, "SLOT_UNAVAILABLE"},
	{domain.ErrAlreadyCompleted, http.StatusConflict, "ALREADY_COMPLETED"},
	{domain.ErrRescheduleRestricted, http.StatusUnprocessableEntity, "RESCHEDULE_RESTRICTED"},
	{domain.ErrPaymentVerificationFailed, http.StatusPaymentRequired, "PAYMENT_VERIFICATION_FAILED"},
	{domain.ErrConfig, http.StatusServiceUnavailable, "CONFIG_ERROR"},
	{domain.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
}

// Status returns the HTTP status and error code for err; unknown errors are 500.
func Status(err error) (int, string) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// FromError writes err using the domain error table and records it on the
// context so the request logger sees it.
func FromError(c *gin.Context, err error) {
	status, code := Status(err)
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	Error(c, status, code, msg)
}
