package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeInvalidState Code = "INVALID_STATE"
	CodeNotFound     Code = "NOT_FOUND"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Settlement error codes
const (
	// Ledger
	CodeInsufficientBalance   Code = "INSUFFICIENT_BALANCE"
	CodeInsufficientAllowance Code = "INSUFFICIENT_ALLOWANCE"
	CodeUnknownAsset          Code = "UNKNOWN_ASSET"

	// Flash loan cycle
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeInsolvent         Code = "INSOLVENT"
	CodeInvalidRequest    Code = "INVALID_REQUEST"
	CodeReentrant         Code = "REENTRANT"
	CodeFlashLoanRejected Code = "FLASHLOAN_REJECTED"
	CodeRepaymentPull     Code = "REPAYMENT_PULL_FAILED"

	// Trading venue
	CodeSwapFailed            Code = "SWAP_FAILED"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"

	// On-chain diagnostics
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"

	// Circuit breaker
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
