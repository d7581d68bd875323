package service

import "errors"

// Typed failures returned by core operations. Callers match with errors.Is;
// services wrap them with context via fmt.Errorf("…: %w", …).
var (
	// ErrInvalidOptions means fewer than two distinct non-empty options,
	// or a creator choice not among them
	ErrInvalidOptions = errors.New("invalid options")

	// ErrInvalidAmount means a non-positive stake or adjustment amount
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds means the balance is below the requested debit
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrMarketNotFound means no market exists with the given ID
	ErrMarketNotFound = errors.New("market not found")

	// ErrMarketClosed means a stake was attempted on a non-open market
	ErrMarketClosed = errors.New("market is closed")

	// ErrInvalidOption means a stake option not in the market's option set
	ErrInvalidOption = errors.New("invalid option")

	// ErrAlreadySettled means a resolve/void was attempted on a non-open market
	ErrAlreadySettled = errors.New("market already settled")

	// ErrUnauthorized means the caller lacks the admin capability
	ErrUnauthorized = errors.New("unauthorized")
)
