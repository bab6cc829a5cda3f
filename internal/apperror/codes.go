package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Detection-engine error codes
const (
	// Venue (exchange API) errors
	CodeVenueConnectionFailed Code = "VENUE_CONNECTION_FAILED"
	CodeVenueAPIError         Code = "VENUE_API_ERROR"
	CodeVenueRateLimited      Code = "VENUE_RATE_LIMITED"
	CodeTickerFetchFailed     Code = "TICKER_FETCH_FAILED"
	CodeInvalidQuote          Code = "INVALID_QUOTE"
	CodeStaleQuote            Code = "STALE_QUOTE"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Detection errors
	CodeEmptyMarket            Code = "EMPTY_MARKET"
	CodeSpreadCalculationError Code = "SPREAD_CALCULATION_ERROR"
	CodeInsufficientLiquidity  Code = "INSUFFICIENT_LIQUIDITY"

	// Simulation rejections
	CodeTradeRejected   Code = "TRADE_REJECTED"
	CodeDailyCapReached Code = "DAILY_CAP_REACHED"

	// Persistence / fan-out errors
	CodeStorageError  Code = "STORAGE_ERROR"
	CodePublishFailed Code = "PUBLISH_FAILED"
	CodeNotifyFailed  Code = "NOTIFY_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)

// Class groups codes by how callers should react to them.
type Class string

const (
	// ClassTransient: log, skip the venue or round item, keep going.
	ClassTransient Class = "transient"
	// ClassStructural: the input cannot produce a result; treat as empty, keep going.
	ClassStructural Class = "structural"
	// ClassRejection: a simulation said no; normal control flow, not a failure.
	ClassRejection Class = "rejection"
	// ClassConfig: fatal at startup, never tolerated at runtime.
	ClassConfig Class = "config"
	// ClassInternal: everything else.
	ClassInternal Class = "internal"
)

var classes = map[Code]Class{
	CodeVenueConnectionFailed:    ClassTransient,
	CodeVenueAPIError:            ClassTransient,
	CodeVenueRateLimited:         ClassTransient,
	CodeTickerFetchFailed:        ClassTransient,
	CodeStaleQuote:               ClassTransient,
	CodeServiceTimeout:           ClassTransient,
	CodeServiceUnavailable:       ClassTransient,
	CodeRateLimitExceeded:        ClassTransient,
	CodeExternalServiceError:     ClassTransient,
	CodeWebSocketConnectionError: ClassTransient,
	CodeWebSocketReconnecting:    ClassTransient,
	CodeWebSocketClosed:          ClassTransient,
	CodeWebSocketSendError:       ClassTransient,
	CodeCircuitOpen:              ClassTransient,
	CodeCircuitHalfOpen:          ClassTransient,
	CodeStorageError:             ClassTransient,
	CodePublishFailed:            ClassTransient,
	CodeNotifyFailed:             ClassTransient,

	CodeInvalidQuote:           ClassStructural,
	CodeEmptyMarket:            ClassStructural,
	CodeSpreadCalculationError: ClassStructural,
	CodeInsufficientLiquidity:  ClassStructural,

	CodeTradeRejected:   ClassRejection,
	CodeDailyCapReached: ClassRejection,

	CodeConfigurationError: ClassConfig,
}

// ClassOf returns the handling class for an error code.
func ClassOf(code Code) Class {
	if c, ok := classes[code]; ok {
		return c
	}
	return ClassInternal
}
