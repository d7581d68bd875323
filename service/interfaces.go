package service

import (
	"context"

	"bookie/events"
	"bookie/models"
)

// UserRepository defines the interface for balance row data access
type UserRepository interface {
	// EnsureUser idempotently creates a balance row at the starting value,
	// returning true if a new row was created
	EnsureUser(ctx context.Context, userID string, startingBalance int64) (bool, error)

	// GetByID retrieves a user by handle, or nil if unseen
	GetByID(ctx context.Context, userID string) (*models.User, error)

	// LockBalance reads a balance under a row-level exclusive lock
	LockBalance(ctx context.Context, userID string) (int64, error)

	// SetBalance overwrites a user's balance
	SetBalance(ctx context.Context, userID string, newBalance int64) error

	// AddBalance credits amount to a user's balance
	AddBalance(ctx context.Context, userID string, amount int64) error

	// ListBalancesExcluding returns all balances except the given value
	ListBalancesExcluding(ctx context.Context, balance int64) ([]*models.BalanceEntry, error)

	// Count returns the number of user rows
	Count(ctx context.Context) (int64, error)
}

// MarketRepository defines the interface for market and stake data access
type MarketRepository interface {
	// Market operations
	Create(ctx context.Context, market *models.Market) error
	GetByID(ctx context.Context, id int64) (*models.Market, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Market, error)
	MarkResolved(ctx context.Context, id int64, outcome string) error
	MarkVoided(ctx context.Context, id int64) error
	ListOpen(ctx context.Context) ([]*models.Market, error)

	// Stake operations
	InsertStake(ctx context.Context, stake *models.Stake) error
	ListStakesByMarket(ctx context.Context, marketID int64) ([]*models.Stake, error)
	ListStakesByMarkets(ctx context.Context, marketIDs []int64) (map[int64][]*models.Stake, error)
	ListOpenStakesByUser(ctx context.Context, userID string) ([]*models.UserStake, error)

	// Diagnostics
	CountByState(ctx context.Context) (map[models.MarketState]int64, error)
	StakeTotals(ctx context.Context) (count int64, total int64, err error)
}

// MaintenanceRepository defines destructive administrative data access
type MaintenanceRepository interface {
	// ResetAll truncates every relation
	ResetAll(ctx context.Context) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork scopes a set of repository calls to one atomic transaction.
// Either Commit makes every effect visible together, or Rollback (also safe
// via defer after a successful Commit) discards them all.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	MarketRepository() MarketRepository
	MaintenanceRepository() MaintenanceRepository

	// EventBus buffers events until Commit, discarding them on Rollback
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates fresh units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// LedgerService defines balance accounting operations
type LedgerService interface {
	// GetBalance returns a user's balance, creating the user at the
	// starting balance if unseen
	GetBalance(ctx context.Context, userID string) (int64, error)

	// ListBalances returns all balances except users still at the starting
	// balance, richest first
	ListBalances(ctx context.Context) ([]*models.BalanceEntry, error)

	// AdjustBalance applies a positive or negative delta under a row lock,
	// failing with ErrInsufficientFunds if the result would be negative
	AdjustBalance(ctx context.Context, userID string, delta int64, isAdmin bool) (*models.BalanceAdjustment, error)

	// SetBalance moves a user to an absolute balance, expressed as an
	// adjustment computed from a freshly locked read
	SetBalance(ctx context.Context, userID string, target int64, isAdmin bool) (*models.BalanceAdjustment, error)
}

// MarketService defines market lifecycle and stake placement operations
type MarketService interface {
	// CreateMarket opens a market and places the creator's first stake,
	// debiting the creator, all atomically
	CreateMarket(ctx context.Context, creatorID, question string, options []string, choice string, amount int64) (*models.MarketDetail, error)

	// PlaceStake stakes credits on one option of an open market
	PlaceStake(ctx context.Context, marketID int64, userID, option string, amount int64) (*models.Stake, error)

	// GetMarket returns a market with all its stakes, or nil if no such market
	GetMarket(ctx context.Context, marketID int64) (*models.MarketDetail, error)

	// ListOpenMarkets returns all open markets with their stakes, newest first
	ListOpenMarkets(ctx context.Context) ([]*models.MarketDetail, error)

	// ListUserOpenStakes returns a user's stakes on open markets joined
	// with each market's question
	ListUserOpenStakes(ctx context.Context, userID string) ([]*models.UserStake, error)
}

// SettlementService defines exactly-once market settlement operations
type SettlementService interface {
	// ResolveMarket settles a market on the given outcome and distributes
	// the pot to winning stakes proportionally
	ResolveMarket(ctx context.Context, marketID int64, outcome string, isAdmin bool) (*models.ResolutionResult, error)

	// VoidMarket settles a market by refunding every stake at its original amount
	VoidMarket(ctx context.Context, marketID int64, isAdmin bool) (*models.VoidResult, error)
}

// StatsService defines read-only diagnostic projections
type StatsService interface {
	// GetSystemStats returns aggregate counts across the whole store
	GetSystemStats(ctx context.Context) (*models.SystemStats, error)
}

// AdminService defines destructive administrative operations
type AdminService interface {
	// ResetAll truncates all state. Reserved for administrative/debug use.
	ResetAll(ctx context.Context, isAdmin bool) error
}
