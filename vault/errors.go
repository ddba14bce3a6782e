package vault

import "errors"

// Error taxonomy of the vault instruction surface. Every error aborts the
// enclosing request atomically; callers match with errors.Is.
var (
	ErrAlreadyInitialized = errors.New("vault already initialized")
	ErrNotInitialized     = errors.New("vault not initialized")
	ErrUnauthorized       = errors.New("caller is not the vault authority")
	ErrInvalidParameters  = errors.New("invalid vault parameters")
	ErrInvalidMint        = errors.New("mint is not one of the vault pair")
	ErrZeroAmount         = errors.New("amount must be greater than 0")
	ErrTradeExceedsMax    = errors.New("amount exceeds maximum single trade limit")
	ErrInsufficientFunds  = errors.New("vault custody balance too low")
	ErrPoolUnreadable     = errors.New("pool account cannot be decoded")

	ErrNoArbitrageOpportunity             = errors.New("no arbitrage opportunity available")
	ErrProfitBelowThresholdAfterExecution = errors.New("realized profit below threshold")
	ErrSlippageExceeded                   = errors.New("swap output below slippage floor")
	ErrExternalSwapFailure                = errors.New("pool program rejected the swap")
	ErrArithmeticOverflow                 = errors.New("arithmetic overflow")
)
