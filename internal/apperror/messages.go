package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeInvalidInput: "Invalid input provided",
	CodeInvalidState: "Invalid state for this operation",
	CodeNotFound:     "Resource not found",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Ledger
	CodeInsufficientBalance:   "Insufficient balance",
	CodeInsufficientAllowance: "Insufficient allowance",
	CodeUnknownAsset:          "Asset is not tracked",

	// Flash loan cycle
	CodeUnauthorized:      "Caller is not authorized",
	CodeInsolvent:         "Post-trade balance cannot cover principal plus premium",
	CodeInvalidRequest:    "Invalid flash loan request",
	CodeReentrant:         "Settlement cycle already in progress",
	CodeFlashLoanRejected: "Lending pool rejected the flash loan",
	CodeRepaymentPull:     "Lending pool could not pull repayment",

	// Trading venue
	CodeSwapFailed:            "Venue swap failed",
	CodeInsufficientLiquidity: "Insufficient liquidity at the venue",

	// On-chain diagnostics
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeContractCallFailed:       "Smart contract call failed",

	// Circuit breaker
	CodeCircuitOpen: "Circuit breaker is open",
}
