package service

import (
	"context"
	"fmt"
	"strings"

	"bookie/events"
	"bookie/models"
)

// marketService implements the MarketService interface
type marketService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewMarketService creates a new market service
func NewMarketService(uowFactory UnitOfWorkFactory, startingBalance int64) MarketService {
	return &marketService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// CreateMarket opens a market with the creator's first stake placed on it.
// Market insert, stake insert and creator debit commit as one unit.
func (s *marketService) CreateMarket(ctx context.Context, creatorID, question string, options []string, choice string, amount int64) (*models.MarketDetail, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("stake amount %d must be positive: %w", amount, ErrInvalidAmount)
	}

	cleaned := models.CleanOptions(options)
	if len(cleaned) < 2 {
		return nil, fmt.Errorf("need at least 2 non-empty options: %w", ErrInvalidOptions)
	}
	if models.HasDuplicateOptions(cleaned) {
		return nil, fmt.Errorf("options must be distinct: %w", ErrInvalidOptions)
	}

	choice = strings.TrimSpace(choice)
	market := &models.Market{
		Question:  strings.TrimSpace(question),
		Options:   cleaned,
		CreatorID: creatorID,
		State:     models.MarketStateOpen,
	}
	if _, ok := market.FindOption(choice); !ok {
		return nil, fmt.Errorf("choice %q is not an option: %w", choice, ErrInvalidOptions)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Debit first so the creator's balance row stays locked while the
	// market and stake rows are inserted
	if _, err := adjustUnderLock(ctx, uow, creatorID, -amount, s.startingBalance, "market_create"); err != nil {
		return nil, err
	}

	if err := uow.MarketRepository().Create(ctx, market); err != nil {
		return nil, fmt.Errorf("failed to create market: %w", err)
	}

	stake := &models.Stake{
		MarketID: market.ID,
		UserID:   creatorID,
		Option:   choice,
		Amount:   amount,
	}
	if err := uow.MarketRepository().InsertStake(ctx, stake); err != nil {
		return nil, fmt.Errorf("failed to insert creator stake: %w", err)
	}

	uow.EventBus().Publish(events.MarketCreatedEvent{
		MarketID:  market.ID,
		CreatorID: creatorID,
		Question:  market.Question,
	})
	uow.EventBus().Publish(events.StakePlacedEvent{
		MarketID: market.ID,
		UserID:   creatorID,
		Option:   choice,
		Amount:   amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.MarketDetail{
		Market: market,
		Stakes: []*models.Stake{stake},
	}, nil
}

// PlaceStake stakes credits on one option of an open market. The market row
// is read without locking; settlement's own lock orders the two operations.
func (s *marketService) PlaceStake(ctx context.Context, marketID int64, userID, option string, amount int64) (*models.Stake, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("stake amount %d must be positive: %w", amount, ErrInvalidAmount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	market, err := uow.MarketRepository().GetByID(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil {
		return nil, fmt.Errorf("market %d: %w", marketID, ErrMarketNotFound)
	}
	if !market.IsOpen() {
		return nil, fmt.Errorf("market %d is %s: %w", marketID, market.State, ErrMarketClosed)
	}

	option = strings.TrimSpace(option)
	if _, ok := market.FindOption(option); !ok {
		return nil, fmt.Errorf("option %q not in %v: %w", option, market.Options, ErrInvalidOption)
	}

	if _, err := adjustUnderLock(ctx, uow, userID, -amount, s.startingBalance, "stake_placed"); err != nil {
		return nil, err
	}

	stake := &models.Stake{
		MarketID: marketID,
		UserID:   userID,
		Option:   option,
		Amount:   amount,
	}
	if err := uow.MarketRepository().InsertStake(ctx, stake); err != nil {
		return nil, fmt.Errorf("failed to insert stake: %w", err)
	}

	uow.EventBus().Publish(events.StakePlacedEvent{
		MarketID: marketID,
		UserID:   userID,
		Option:   option,
		Amount:   amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return stake, nil
}

// GetMarket returns a market with all its stakes, or nil if no such market
func (s *marketService) GetMarket(ctx context.Context, marketID int64) (*models.MarketDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	market, err := uow.MarketRepository().GetByID(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	if market == nil {
		return nil, nil
	}

	stakes, err := uow.MarketRepository().ListStakesByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakes: %w", err)
	}

	return &models.MarketDetail{
		Market: market,
		Stakes: stakes,
	}, nil
}

// ListOpenMarkets returns all open markets with their stakes, newest first
func (s *marketService) ListOpenMarkets(ctx context.Context) ([]*models.MarketDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	markets, err := uow.MarketRepository().ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open markets: %w", err)
	}

	marketIDs := make([]int64, len(markets))
	for i, m := range markets {
		marketIDs[i] = m.ID
	}

	stakesByMarket, err := uow.MarketRepository().ListStakesByMarkets(ctx, marketIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakes: %w", err)
	}

	details := make([]*models.MarketDetail, len(markets))
	for i, m := range markets {
		details[i] = &models.MarketDetail{
			Market: m,
			Stakes: stakesByMarket[m.ID],
		}
	}

	return details, nil
}

// ListUserOpenStakes returns a user's stakes on open markets
func (s *marketService) ListUserOpenStakes(ctx context.Context, userID string) ([]*models.UserStake, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	userStakes, err := uow.MarketRepository().ListOpenStakesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user stakes: %w", err)
	}

	return userStakes, nil
}
