package dto

import (
	"net/http"

	"github.com/tradeops/masterdata/internal/application/hscode"
	"github.com/tradeops/masterdata/internal/application/pricing"
	"github.com/tradeops/masterdata/internal/application/tariff"
	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// Error codes for failures that originate in the HTTP layer itself, before
// a request ever reaches a service.
const (
	// ErrCodeBadRequest is used for malformed parameters and bodies
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeNotFound is used for unknown routes and resources
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeTooLarge is used when a request body exceeds the configured cap
	ErrCodeTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeInternal is used when the error type is unknown
	ErrCodeInternal = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps domain and service error codes to HTTP status
// codes. NEVER_LOADED maps to 503 rather than 404: the dataset is
// registered, its data just has not arrived yet, and a retry can succeed.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeNotFound:   http.StatusNotFound,
	ErrCodeTooLarge:   http.StatusRequestEntityTooLarge,
	ErrCodeInternal:   http.StatusInternalServerError,

	masterdata.CodeDatasetNotFound:  http.StatusNotFound,
	masterdata.CodeNeverLoaded:      http.StatusServiceUnavailable,
	masterdata.CodeNoPrevious:       http.StatusConflict,
	masterdata.CodeEmptySnapshot:    http.StatusUnprocessableEntity,
	masterdata.CodeMappingAmbiguous: http.StatusUnprocessableEntity,
	masterdata.CodeRecordInvalid:    http.StatusUnprocessableEntity,
	masterdata.CodeLoadFailed:       http.StatusInternalServerError,
	masterdata.CodeTransientIO:      http.StatusServiceUnavailable,
	masterdata.CodeRetryExhausted:   http.StatusServiceUnavailable,
	masterdata.CodeInvalidHSCode:    http.StatusBadRequest,

	hscode.CodeHSCodeNotFound: http.StatusNotFound,
	tariff.CodeTariffNotFound: http.StatusNotFound,
	pricing.CodeInvalidQuote:  http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to
// 500 for codes the map does not know.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
