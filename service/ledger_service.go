package service

import (
	"context"
	"fmt"

	"bookie/events"
	"bookie/models"
)

// ledgerService implements the LedgerService interface
type ledgerService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, startingBalance int64) LedgerService {
	return &ledgerService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// GetBalance returns a user's balance, creating the user if unseen
func (s *ledgerService) GetBalance(ctx context.Context, userID string) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := ensureUser(ctx, uow, userID, s.startingBalance); err != nil {
		return 0, err
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, fmt.Errorf("user %s missing after ensure", userID)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user.Balance, nil
}

// ListBalances returns all balances except users still at the starting balance
func (s *ledgerService) ListBalances(ctx context.Context) ([]*models.BalanceEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.UserRepository().ListBalancesExcluding(ctx, s.startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}

	return entries, nil
}

// AdjustBalance applies delta under a row lock, refusing to go negative.
// This is the only path by which balances change; market and settlement
// operations route their debits and credits through the same locked pattern.
func (s *ledgerService) AdjustBalance(ctx context.Context, userID string, delta int64, isAdmin bool) (*models.BalanceAdjustment, error) {
	if !isAdmin {
		return nil, fmt.Errorf("balance adjustment requires admin: %w", ErrUnauthorized)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	adjustment, err := adjustUnderLock(ctx, uow, userID, delta, s.startingBalance, "admin_adjustment")
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return adjustment, nil
}

// SetBalance moves a user to an absolute balance. The delta is computed from
// a freshly locked read so a concurrent adjustment cannot slip in between.
func (s *ledgerService) SetBalance(ctx context.Context, userID string, target int64, isAdmin bool) (*models.BalanceAdjustment, error) {
	if !isAdmin {
		return nil, fmt.Errorf("balance set requires admin: %w", ErrUnauthorized)
	}
	if target < 0 {
		return nil, fmt.Errorf("target balance %d is negative: %w", target, ErrInvalidAmount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := ensureUser(ctx, uow, userID, s.startingBalance); err != nil {
		return nil, err
	}

	current, err := uow.UserRepository().LockBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}

	if err := uow.UserRepository().SetBalance(ctx, userID, target); err != nil {
		return nil, fmt.Errorf("failed to set balance: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:     userID,
		OldBalance: current,
		NewBalance: target,
		Reason:     "admin_set",
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.BalanceAdjustment{
		UserID:     userID,
		OldBalance: current,
		NewBalance: target,
	}, nil
}

// ensureUser lazily creates a balance row inside the current unit of work
// and publishes a creation event if a row was inserted
func ensureUser(ctx context.Context, uow UnitOfWork, userID string, startingBalance int64) error {
	created, err := uow.UserRepository().EnsureUser(ctx, userID, startingBalance)
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	if created {
		uow.EventBus().Publish(events.UserCreatedEvent{
			UserID:          userID,
			StartingBalance: startingBalance,
		})
	}
	return nil
}

// adjustUnderLock is the shared lock-then-check-then-mutate balance primitive.
// The row stays locked until the unit of work commits or rolls back.
func adjustUnderLock(ctx context.Context, uow UnitOfWork, userID string, delta int64, startingBalance int64, reason string) (*models.BalanceAdjustment, error) {
	if err := ensureUser(ctx, uow, userID, startingBalance); err != nil {
		return nil, err
	}

	current, err := uow.UserRepository().LockBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}

	newBalance := current + delta
	if newBalance < 0 {
		return nil, fmt.Errorf("balance %d cannot absorb %d: %w", current, delta, ErrInsufficientFunds)
	}

	if err := uow.UserRepository().SetBalance(ctx, userID, newBalance); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:     userID,
		OldBalance: current,
		NewBalance: newBalance,
		Reason:     reason,
	})

	return &models.BalanceAdjustment{
		UserID:     userID,
		OldBalance: current,
		NewBalance: newBalance,
	}, nil
}
