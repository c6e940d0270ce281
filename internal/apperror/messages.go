package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:       "Invalid input provided",
	CodeConfigurationError: "Configuration error",

	CodeServiceTimeout:     "Service request timeout",
	CodeServiceUnavailable: "Service temporarily unavailable",
	CodeRateLimitExceeded:  "Rate limit exceeded",

	CodeUnknownError: "An unknown error occurred",

	CodeInvalidVenueQuote:          "Venue quote is invalid and was excluded",
	CodeInvalidEdgeWeight:          "Edge weight is undefined for venue pair",
	CodeInsufficientVenues:         "Fewer than two valid venues",
	CodeInvalidGraph:               "Rate graph is malformed",
	CodeInvalidStartNode:           "Start node is not in the graph",
	CodeCycleReconstructionFailed:  "Negative cycle could not be reconstructed",
	CodeOpportunityEvaluationError: "Opportunity could not be evaluated",

	CodeQuoteFetchFailed:   "Failed to fetch venue quote",
	CodeCoinAPIError:       "CoinAPI error",
	CodeCoinAPIRateLimited: "CoinAPI rate limit exceeded",
	CodeInvalidRate:        "Invalid rate data",
	CodeUnknownVenue:       "Unknown venue",

	CodeOrderRejected: "Order rejected by venue",
	CodeStoreFailed:   "Failed to persist opportunity",

	CodeCacheMiss:   "Cache miss",
	CodeCacheFailed: "Cache operation failed",

	CodeCircuitOpen: "Circuit breaker is open",
}
