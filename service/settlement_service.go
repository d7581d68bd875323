package service

import (
	"context"
	"fmt"
	"strings"

	"bookie/events"
	"bookie/models"

	log "github.com/sirupsen/logrus"
)

// settlementService implements the SettlementService interface
type settlementService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, startingBalance int64) SettlementService {
	return &settlementService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// ResolveMarket settles a market on the given outcome. The market row is
// locked for the whole operation so concurrent resolve/void calls serialize:
// the second sees the settled state and fails with ErrAlreadySettled.
func (s *settlementService) ResolveMarket(ctx context.Context, marketID int64, outcome string, isAdmin bool) (*models.ResolutionResult, error) {
	if !isAdmin {
		return nil, fmt.Errorf("market resolution requires admin: %w", ErrUnauthorized)
	}

	outcome = strings.TrimSpace(outcome)
	if outcome == "" {
		return nil, fmt.Errorf("outcome is empty: %w", ErrInvalidOption)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	market, err := uow.MarketRepository().GetByIDForUpdate(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock market: %w", err)
	}
	if market == nil {
		return nil, fmt.Errorf("market %d: %w", marketID, ErrMarketNotFound)
	}
	if !market.IsOpen() {
		return nil, fmt.Errorf("market %d is %s: %w", marketID, market.State, ErrAlreadySettled)
	}

	stakes, err := uow.MarketRepository().ListStakesByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakes: %w", err)
	}

	var totalPot int64
	var winning, losing []*models.Stake
	for _, stake := range stakes {
		totalPot += stake.Amount
		if models.OptionEqual(stake.Option, outcome) {
			winning = append(winning, stake)
		} else {
			losing = append(losing, stake)
		}
	}

	if err := uow.MarketRepository().MarkResolved(ctx, marketID, outcome); err != nil {
		return nil, fmt.Errorf("failed to mark market resolved: %w", err)
	}
	market.State = models.MarketStateResolved
	market.Outcome = &outcome

	result := &models.ResolutionResult{
		Market:   market,
		TotalPot: totalPot,
	}

	if len(winning) == 0 {
		// Nobody picked the outcome: every stake comes back at face value
		refunds, err := s.refundStakes(ctx, uow, stakes)
		if err != nil {
			return nil, err
		}
		result.Refunds = refunds
	} else {
		winners, err := s.payWinners(ctx, uow, winning, losing, totalPot)
		if err != nil {
			return nil, err
		}
		result.Winners = winners
	}

	uow.EventBus().Publish(events.MarketSettledEvent{
		MarketID: marketID,
		Outcome:  outcome,
		TotalPot: totalPot,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"marketID": marketID,
		"outcome":  outcome,
		"totalPot": totalPot,
		"winners":  len(result.Winners),
	}).Info("Market resolved")

	return result, nil
}

// VoidMarket settles a market by refunding every stake, symmetric with the
// no-winner resolution path
func (s *settlementService) VoidMarket(ctx context.Context, marketID int64, isAdmin bool) (*models.VoidResult, error) {
	if !isAdmin {
		return nil, fmt.Errorf("market void requires admin: %w", ErrUnauthorized)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	market, err := uow.MarketRepository().GetByIDForUpdate(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock market: %w", err)
	}
	if market == nil {
		return nil, fmt.Errorf("market %d: %w", marketID, ErrMarketNotFound)
	}
	if !market.IsOpen() {
		return nil, fmt.Errorf("market %d is %s: %w", marketID, market.State, ErrAlreadySettled)
	}

	stakes, err := uow.MarketRepository().ListStakesByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakes: %w", err)
	}

	var totalPot int64
	for _, stake := range stakes {
		totalPot += stake.Amount
	}

	if err := uow.MarketRepository().MarkVoided(ctx, marketID); err != nil {
		return nil, fmt.Errorf("failed to mark market voided: %w", err)
	}
	market.State = models.MarketStateVoided

	refunds, err := s.refundStakes(ctx, uow, stakes)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.MarketSettledEvent{
		MarketID: marketID,
		Voided:   true,
		TotalPot: totalPot,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"marketID": marketID,
		"totalPot": totalPot,
		"refunds":  len(refunds),
	}).Info("Market voided")

	return &models.VoidResult{
		Market:   market,
		TotalPot: totalPot,
		Refunds:  refunds,
	}, nil
}

// payWinners credits each winning stake its proportional share of the pot.
// A winning stake's base is the pot minus the same user's losing stakes on
// this market; the share is floored, so distributed winnings can sum to less
// than the pot and the remainder is absorbed.
func (s *settlementService) payWinners(ctx context.Context, uow UnitOfWork, winning, losing []*models.Stake, totalPot int64) ([]*models.WinnerPayout, error) {
	var winningTotal int64
	for _, stake := range winning {
		winningTotal += stake.Amount
	}

	losingByUser := make(map[string]int64)
	for _, stake := range losing {
		losingByUser[stake.UserID] += stake.Amount
	}

	winners := make([]*models.WinnerPayout, 0, len(winning))
	for _, stake := range winning {
		payoutBase := totalPot - losingByUser[stake.UserID]
		winnings := payoutBase * stake.Amount / winningTotal

		if err := ensureUser(ctx, uow, stake.UserID, s.startingBalance); err != nil {
			return nil, err
		}
		if winnings > 0 {
			if err := uow.UserRepository().AddBalance(ctx, stake.UserID, winnings); err != nil {
				return nil, fmt.Errorf("failed to credit winner %s: %w", stake.UserID, err)
			}
		}

		winners = append(winners, &models.WinnerPayout{
			UserID:        stake.UserID,
			Winnings:      winnings,
			OriginalStake: stake.Amount,
			Profit:        winnings - stake.Amount,
		})
	}

	return winners, nil
}

// refundStakes credits every stake back at its original amount
func (s *settlementService) refundStakes(ctx context.Context, uow UnitOfWork, stakes []*models.Stake) ([]*models.Refund, error) {
	refunds := make([]*models.Refund, 0, len(stakes))
	for _, stake := range stakes {
		if err := ensureUser(ctx, uow, stake.UserID, s.startingBalance); err != nil {
			return nil, err
		}
		if err := uow.UserRepository().AddBalance(ctx, stake.UserID, stake.Amount); err != nil {
			return nil, fmt.Errorf("failed to refund %s: %w", stake.UserID, err)
		}
		refunds = append(refunds, &models.Refund{
			UserID: stake.UserID,
			Amount: stake.Amount,
		})
	}
	return refunds, nil
}
