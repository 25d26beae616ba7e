package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeTimeout            ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeCacheError         ErrorCode = "COMMON_008"
	ErrCodeExternalService    ErrorCode = "COMMON_009"
	ErrCodeConflict           ErrorCode = "COMMON_010"

	// CodeOK is the sentinel returned by GetCode for a nil error.
	CodeOK ErrorCode = "OK"
)

// Comparable-sales extraction error codes.
const (
	// ErrCodeNoUsablePrice marks a passage that yielded no price in the
	// accepted range.  It is informational: the builder drops such passages
	// silently and never propagates this code to callers.
	ErrCodeNoUsablePrice ErrorCode = "COMP_001"
	ErrCodeMalformedDate ErrorCode = "COMP_002"
	ErrCodeEmptyPassage  ErrorCode = "COMP_003"
	ErrCodeUnknownBrand  ErrorCode = "COMP_004"
)

// Valuation error codes.
const (
	ErrCodeValuationFailed  ErrorCode = "VAL_001"
	ErrCodeInsufficientData ErrorCode = "VAL_002"
)

// Passage-search (external collaborator) error codes.
const (
	ErrCodeSearchUnavailable ErrorCode = "SRC_001"
	ErrCodeSearchRateLimited ErrorCode = "SRC_002"
	ErrCodeSearchParseError  ErrorCode = "SRC_003"
)

// LLM formatter error codes.
const (
	ErrCodeModelUnavailable ErrorCode = "AI_001"
	ErrCodeInferenceFailed  ErrorCode = "AI_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeConflict:           http.StatusConflict,

	ErrCodeNoUsablePrice: http.StatusUnprocessableEntity,
	ErrCodeMalformedDate: http.StatusUnprocessableEntity,
	ErrCodeEmptyPassage:  http.StatusBadRequest,
	ErrCodeUnknownBrand:  http.StatusUnprocessableEntity,

	ErrCodeValuationFailed:  http.StatusInternalServerError,
	ErrCodeInsufficientData: http.StatusUnprocessableEntity,

	ErrCodeSearchUnavailable: http.StatusServiceUnavailable,
	ErrCodeSearchRateLimited: http.StatusTooManyRequests,
	ErrCodeSearchParseError:  http.StatusBadGateway,

	ErrCodeModelUnavailable: http.StatusServiceUnavailable,
	ErrCodeInferenceFailed:  http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeTimeout:            "request timeout",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeConflict:           "resource conflict",

	ErrCodeNoUsablePrice: "passage yielded no usable price",
	ErrCodeMalformedDate: "sale date could not be parsed",
	ErrCodeEmptyPassage:  "empty passage text",
	ErrCodeUnknownBrand:  "equipment brand not recognised",

	ErrCodeValuationFailed:  "valuation failed",
	ErrCodeInsufficientData: "insufficient market data for valuation",

	ErrCodeSearchUnavailable: "passage search unavailable",
	ErrCodeSearchRateLimited: "passage search rate limited",
	ErrCodeSearchParseError:  "failed to parse passage search response",

	ErrCodeModelUnavailable: "language model not available",
	ErrCodeInferenceFailed:  "language model inference failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}
