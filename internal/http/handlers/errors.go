package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/koperasichain/backend/internal/fault"
)

// writeFault maps the error taxonomy onto HTTP responses so callers can
// tell a local rejection from a chain failure from a still-pending write.
func writeFault(c *gin.Context, err error) {
	var validationErr *fault.ValidationError
	var allowanceErr *fault.AllowanceError
	var submissionErr *fault.SubmissionError
	var timeoutErr *fault.ConfirmationTimeout
	var queryErr *fault.QueryError

	switch {
	case errors.Is(err, fault.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "action_in_flight"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "reason": validationErr.Reason, "field": validationErr.Field})
	// Chain-side rejections are not malformed requests; 422 keeps them
	// apart from local validation failures.
	case errors.As(err, &allowanceErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "allowance_failed", "reason": allowanceErr.Reason})
	case errors.As(err, &submissionErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "submission_failed", "reason": submissionErr.Reason})
	case errors.As(err, &timeoutErr):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "confirmation_timeout", "tx_hash": timeoutErr.TxHash})
	case errors.As(err, &queryErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "query_failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
