package service

import (
	"context"
	"fmt"

	"bookie/models"
)

// statsService implements the StatsService interface
type statsService struct {
	uowFactory UnitOfWorkFactory
}

// NewStatsService creates a new stats service
func NewStatsService(uowFactory UnitOfWorkFactory) StatsService {
	return &statsService{
		uowFactory: uowFactory,
	}
}

// GetSystemStats returns aggregate counts across the whole store. Pure read;
// the transaction only gives the three queries one consistent snapshot.
func (s *statsService) GetSystemStats(ctx context.Context) (*models.SystemStats, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	marketCounts, err := uow.MarketRepository().CountByState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count markets: %w", err)
	}

	stakeCount, stakeTotal, err := uow.MarketRepository().StakeTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stakes: %w", err)
	}

	return &models.SystemStats{
		Users:           users,
		OpenMarkets:     marketCounts[models.MarketStateOpen],
		ResolvedMarkets: marketCounts[models.MarketStateResolved],
		VoidedMarkets:   marketCounts[models.MarketStateVoided],
		Stakes:          stakeCount,
		TotalStaked:     stakeTotal,
	}, nil
}
