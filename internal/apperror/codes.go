package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeServiceTimeout     Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"

	CodeUnknownError Code = "UNKNOWN_ERROR"
)

// Rate graph and cycle detection
const (
	CodeInvalidVenueQuote          Code = "INVALID_VENUE_QUOTE"
	CodeInvalidEdgeWeight          Code = "INVALID_EDGE_WEIGHT"
	CodeInsufficientVenues         Code = "INSUFFICIENT_VENUES"
	CodeInvalidGraph               Code = "INVALID_GRAPH"
	CodeInvalidStartNode           Code = "INVALID_START_NODE"
	CodeCycleReconstructionFailed  Code = "CYCLE_RECONSTRUCTION_FAILED"
	CodeOpportunityEvaluationError Code = "OPPORTUNITY_EVALUATION_ERROR"
)

// Quote acquisition
const (
	CodeQuoteFetchFailed   Code = "QUOTE_FETCH_FAILED"
	CodeCoinAPIError       Code = "COINAPI_API_ERROR"
	CodeCoinAPIRateLimited Code = "COINAPI_RATE_LIMITED"
	CodeInvalidRate        Code = "INVALID_RATE"
	CodeUnknownVenue       Code = "UNKNOWN_VENUE"
)

// Execution and persistence
const (
	CodeOrderRejected Code = "ORDER_REJECTED"
	CodeStoreFailed   Code = "STORE_FAILED"

	CodeCacheMiss   Code = "CACHE_MISS"
	CodeCacheFailed Code = "CACHE_FAILED"

	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
