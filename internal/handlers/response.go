package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wellness-service/internal/services"
)

// ErrorResponse sends a standardized error response
// Internal errors are logged but not exposed to clients
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	requestID := getRequestID(c)

	if err != nil {
		log.Printf("[ERROR] [%s] %s: %v", requestID, message, err)
	}

	response := gin.H{
		"success":    false,
		"message":    message,
		"request_id": requestID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}

	// Only include error details in development mode
	if gin.Mode() == gin.DebugMode && err != nil {
		response["error_details"] = err.Error()
	}

	c.JSON(statusCode, response)
}

// SuccessResponse sends a standardized success response
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	response := gin.H{
		"success":    true,
		"message":    message,
		"request_id": getRequestID(c),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if data != nil {
		response["data"] = data
	}
	c.JSON(statusCode, response)
}

// ServiceErrorResponse maps a service error to its HTTP status
func ServiceErrorResponse(c *gin.Context, err error) {
	if verr, ok := services.IsValidationError(err); ok {
		ErrorResponse(c, http.StatusBadRequest, verr.Error(), nil)
		return
	}
	if nferr, ok := services.IsNotFoundError(err); ok {
		ErrorResponse(c, http.StatusNotFound, nferr.Error(), nil)
		return
	}
	if cerr, ok := services.IsConflictError(err); ok {
		ErrorResponse(c, http.StatusConflict, cerr.Error(), nil)
		return
	}
	if uerr, ok := services.IsUnauthorizedError(err); ok {
		ErrorResponse(c, http.StatusUnauthorized, uerr.Error(), nil)
		return
	}
	if ferr, ok := services.IsForbiddenError(err); ok {
		ErrorResponse(c, http.StatusForbidden, ferr.Error(), nil)
		return
	}
	ErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
}

// getRequestID retrieves or generates a request ID
func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		return requestID.(string)
	}
	if requestID := c.GetHeader("X-Request-ID"); requestID != "" {
		return requestID
	}
	return time.Now().Format("20060102150405")
}
