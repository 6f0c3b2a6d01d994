package dto

import "net/http"

// General error codes used by the HTTP layer itself
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes produced by the domain and application layers are used as-is
// on the wire; anything unknown falls back to 500.
var ErrorCodeHTTPStatus = map[string]int{
	// Request shape and validation -> 400 Bad Request
	ErrCodeBadRequest:              http.StatusBadRequest,
	"VALIDATION_ERROR":             http.StatusBadRequest,
	"INVALID_INPUT":                http.StatusBadRequest,
	"UNSUPPORTED_TRANSACTION_TYPE": http.StatusBadRequest,
	"MISSING_REQUIRED_REFERENCE":   http.StatusBadRequest,
	"INVALID_QUANTITY":             http.StatusBadRequest,
	"INVALID_QUANTITY_SIGN":        http.StatusBadRequest,
	"INVALID_DATE":                 http.StatusBadRequest,
	"INVALID_NAME":                 http.StatusBadRequest,
	"INVALID_UNIT":                 http.StatusBadRequest,
	"INVALID_PRICE":                http.StatusBadRequest,
	"INVALID_THRESHOLD":            http.StatusBadRequest,
	"INVALID_MEDICINE":             http.StatusBadRequest,
	"INVALID_SUPPLIER":             http.StatusBadRequest,
	"INVALID_BATCH_NUMBER":         http.StatusBadRequest,
	"INVALID_EXPIRY":               http.StatusBadRequest,

	// Auth
	ErrCodeUnauthorized: http.StatusUnauthorized,

	// Missing resources -> 404 Not Found
	ErrCodeNotFound:      http.StatusNotFound,
	"MEDICINE_NOT_FOUND": http.StatusNotFound,
	"BATCH_NOT_FOUND":    http.StatusNotFound,

	// Conflicts -> 409 Conflict
	"ALREADY_EXISTS":         http.StatusConflict,
	"DUPLICATE_CODE":         http.StatusConflict,
	"DUPLICATE_BATCH_NUMBER": http.StatusConflict,
	"HAS_STOCK_HISTORY":      http.StatusConflict,
	"CONCURRENCY_CONFLICT":   http.StatusConflict,

	// Business rule violations -> 422 Unprocessable Entity
	"INVALID_STATE":      http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK": http.StatusUnprocessableEntity,

	ErrCodeInternal: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not mapped.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
