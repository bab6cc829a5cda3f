package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Venue errors
	CodeVenueConnectionFailed: "Failed to connect to venue API",
	CodeVenueAPIError:         "Venue API error",
	CodeVenueRateLimited:      "Venue rate limit exceeded",
	CodeTickerFetchFailed:     "Failed to fetch tickers",
	CodeInvalidQuote:          "Invalid quote data",
	CodeStaleQuote:            "Quote is older than the staleness bound",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// Detection errors
	CodeEmptyMarket:            "No usable quotes in this round",
	CodeSpreadCalculationError: "Spread calculation error",
	CodeInsufficientLiquidity:  "Insufficient liquidity for trade size",

	// Simulation rejections
	CodeTradeRejected:   "Trade rejected by simulator",
	CodeDailyCapReached: "Daily trade cap reached",

	// Persistence / fan-out errors
	CodeStorageError:  "Trade ledger operation failed",
	CodePublishFailed: "Failed to publish opportunity",
	CodeNotifyFailed:  "Failed to send notification",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
