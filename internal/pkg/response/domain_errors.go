package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gamecafe/internal/domain"
)

// DomainError renders the billing error taxonomy with its machine code and
// the offending resource, and reports whether err was one of the typed
// failures. Callers fall through to their own handling when it returns false.
func DomainError(c *gin.Context, err error) bool {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		ErrorWithDetails(c, http.StatusConflict, "CONFLICT", conflict.Error(), gin.H{
			"resource": conflict.Resource,
			"id":       conflict.ID,
		})
		return true
	}

	var invalid *domain.InvalidStateError
	if errors.As(err, &invalid) {
		ErrorWithDetails(c, http.StatusConflict, "INVALID_STATE", invalid.Error(), gin.H{
			"resource": invalid.Resource,
			"id":       invalid.ID,
			"status":   invalid.Status,
		})
		return true
	}

	var overpay *domain.OverpaymentError
	if errors.As(err, &overpay) {
		ErrorWithDetails(c, http.StatusUnprocessableEntity, "OVERPAYMENT", overpay.Error(), gin.H{
			"order_number": overpay.OrderNumber,
			"item_name":    overpay.ItemName,
			"requested":    overpay.Requested,
			"already_paid": overpay.AlreadyPaid,
			"ordered":      overpay.Ordered,
		})
		return true
	}

	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		Error(c, http.StatusNotFound, "NOT_FOUND", notFound.Error())
		return true
	}

	return false
}
