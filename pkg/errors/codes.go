package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes follow the "<MODULE>_<NNN>" convention.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Sentinel codes that are not part of any module.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Configuration Error Codes
const (
	ErrCodeInvalidConfig     ErrorCode = "CONFIG_001"
	ErrCodeMissingTextColumn ErrorCode = "CONFIG_002"
	ErrCodeNumericBounds     ErrorCode = "CONFIG_003"
	ErrCodeConfigLoadFailed  ErrorCode = "CONFIG_004"
)

// Glossary Error Codes
const (
	ErrCodeGlossaryInvalid  ErrorCode = "GLOSSARY_001"
	ErrCodeGlossaryTermType ErrorCode = "GLOSSARY_002"
	ErrCodeGlossaryFormat   ErrorCode = "GLOSSARY_003"
)

// Extraction Error Codes
const (
	ErrCodeExtractionFailed ErrorCode = "EXTRACT_001"
	ErrCodePatternCompile   ErrorCode = "EXTRACT_002"
	ErrCodePairSplitFailed  ErrorCode = "EXTRACT_003"
	ErrCodeRecordsInvalid   ErrorCode = "EXTRACT_004"
	ErrCodeRunNotFound      ErrorCode = "EXTRACT_005"
)

// Infrastructure Error Codes
const (
	ErrCodeDatabaseError  ErrorCode = "DB_001"
	ErrCodeMigration      ErrorCode = "DB_002"
	ErrCodeCacheError     ErrorCode = "CACHE_001"
	ErrCodeCacheMiss      ErrorCode = "CACHE_002"
	ErrCodeStorageError   ErrorCode = "STORAGE_001"
	ErrCodeObjectNotFound ErrorCode = "STORAGE_002"
	ErrCodeMessageQueue   ErrorCode = "MSG_001"
	ErrCodeMessageInvalid ErrorCode = "MSG_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeInvalidConfig:     http.StatusBadRequest,
	ErrCodeMissingTextColumn: http.StatusBadRequest,
	ErrCodeNumericBounds:     http.StatusBadRequest,
	ErrCodeConfigLoadFailed:  http.StatusInternalServerError,

	ErrCodeGlossaryInvalid:  http.StatusBadRequest,
	ErrCodeGlossaryTermType: http.StatusBadRequest,
	ErrCodeGlossaryFormat:   http.StatusUnsupportedMediaType,

	ErrCodeExtractionFailed: http.StatusInternalServerError,
	ErrCodePatternCompile:   http.StatusUnprocessableEntity,
	ErrCodePairSplitFailed:  http.StatusInternalServerError,
	ErrCodeRecordsInvalid:   http.StatusBadRequest,
	ErrCodeRunNotFound:      http.StatusNotFound,

	ErrCodeDatabaseError:  http.StatusInternalServerError,
	ErrCodeMigration:      http.StatusInternalServerError,
	ErrCodeCacheError:     http.StatusInternalServerError,
	ErrCodeCacheMiss:      http.StatusNotFound,
	ErrCodeStorageError:   http.StatusBadGateway,
	ErrCodeObjectNotFound: http.StatusNotFound,
	ErrCodeMessageQueue:   http.StatusServiceUnavailable,
	ErrCodeMessageInvalid: http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeInvalidConfig:     "invalid extraction configuration",
	ErrCodeMissingTextColumn: "primary text column is missing",
	ErrCodeNumericBounds:     "numeric length bounds are contradictory",
	ErrCodeConfigLoadFailed:  "failed to load configuration",

	ErrCodeGlossaryInvalid:  "invalid glossary entry",
	ErrCodeGlossaryTermType: "unknown glossary term type",
	ErrCodeGlossaryFormat:   "unsupported glossary format",

	ErrCodeExtractionFailed: "category extraction failed",
	ErrCodePatternCompile:   "failed to compile category pattern",
	ErrCodePairSplitFailed:  "paired token split failed",
	ErrCodeRecordsInvalid:   "invalid record input",
	ErrCodeRunNotFound:      "extraction run not found",

	ErrCodeDatabaseError:  "database error",
	ErrCodeMigration:      "database migration failed",
	ErrCodeCacheError:     "cache error",
	ErrCodeCacheMiss:      "cache miss",
	ErrCodeStorageError:   "object storage error",
	ErrCodeObjectNotFound: "object not found",
	ErrCodeMessageQueue:   "message queue error",
	ErrCodeMessageInvalid: "invalid message payload",
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

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
