package dberr

// Store-level codes of the known-request family.
const (
	CodeConnectRefused    = "P1001"
	CodeServerTimeout     = "P1002"
	CodeOperationTimedOut = "P1008"
	CodeConnectionClosed  = "P1017"
	CodeUniqueViolation   = "P2002"
	CodeQueryValidation   = "P2009"
	CodePoolTimeout       = "P2024"
	CodeNotFound          = "P2025"
)

// Generic taxonomy codes.
const (
	CodeUnknown        = "UNKNOWN_ERROR"
	CodeUnknownRequest = "UNKNOWN_REQUEST_ERROR"
	CodeEnginePanic    = "ENGINE_PANIC_ERROR"
	CodeInitialization = "INITIALIZATION_ERROR"
	CodeValidation     = "VALIDATION_ERROR"
	CodeTimeout        = "TIMEOUT_ERROR"
	CodeConnection     = "CONNECTION_ERROR"
	CodeNetwork        = "NETWORK_ERROR"
	CodeCancelled      = "CANCELLED"
)

type knownCode struct {
	message   string
	retryable bool
	temporary bool
}

// knownCodes is the fixed lookup table for KnownRequestError codes.
var knownCodes = map[string]knownCode{
	CodeConnectRefused:    {"cannot reach database server", true, true},
	CodeServerTimeout:     {"database server timed out", true, true},
	CodeOperationTimedOut: {"database operation timed out", true, true},
	CodeConnectionClosed:  {"server has closed the connection", true, true},
	CodePoolTimeout:       {"timed out fetching a new connection from the pool", true, true},
	CodeUniqueViolation:   {"unique constraint violation", false, false},
	CodeNotFound:          {"record not found", false, false},
	CodeQueryValidation:   {"query validation failed", false, false},
}

// LookupCode reports the documented facets of a known-request code.
func LookupCode(code string) (message string, retryable, temporary, ok bool) {
	k, ok := knownCodes[code]
	return k.message, k.retryable, k.temporary, ok
}

// DefaultRetryableCodes are the codes and error names treated as retryable
// when no explicit list is configured.
func DefaultRetryableCodes() []string {
	return []string{
		CodeConnectRefused,
		CodeServerTimeout,
		CodeOperationTimedOut,
		CodeConnectionClosed,
		CodePoolTimeout,
		"ECONNRESET",
		"ECONNREFUSED",
		"ETIMEDOUT",
		"ENOTFOUND",
	}
}
