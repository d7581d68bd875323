package service

import (
	"context"

	"bookie/events"
	"bookie/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) EnsureUser(ctx context.Context, userID string, startingBalance int64) (bool, error) {
	args := m.Called(ctx, userID, startingBalance)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) LockBalance(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) SetBalance(ctx context.Context, userID string, newBalance int64) error {
	args := m.Called(ctx, userID, newBalance)
	return args.Error(0)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, userID string, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) ListBalancesExcluding(ctx context.Context, balance int64) ([]*models.BalanceEntry, error) {
	args := m.Called(ctx, balance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceEntry), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockMarketRepository is a mock implementation of MarketRepository
type MockMarketRepository struct {
	mock.Mock
}

func (m *MockMarketRepository) Create(ctx context.Context, market *models.Market) error {
	args := m.Called(ctx, market)
	return args.Error(0)
}

func (m *MockMarketRepository) GetByID(ctx context.Context, id int64) (*models.Market, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Market), args.Error(1)
}

func (m *MockMarketRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Market, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Market), args.Error(1)
}

func (m *MockMarketRepository) MarkResolved(ctx context.Context, id int64, outcome string) error {
	args := m.Called(ctx, id, outcome)
	return args.Error(0)
}

func (m *MockMarketRepository) MarkVoided(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMarketRepository) ListOpen(ctx context.Context) ([]*models.Market, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Market), args.Error(1)
}

func (m *MockMarketRepository) InsertStake(ctx context.Context, stake *models.Stake) error {
	args := m.Called(ctx, stake)
	return args.Error(0)
}

func (m *MockMarketRepository) ListStakesByMarket(ctx context.Context, marketID int64) ([]*models.Stake, error) {
	args := m.Called(ctx, marketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Stake), args.Error(1)
}

func (m *MockMarketRepository) ListStakesByMarkets(ctx context.Context, marketIDs []int64) (map[int64][]*models.Stake, error) {
	args := m.Called(ctx, marketIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]*models.Stake), args.Error(1)
}

func (m *MockMarketRepository) ListOpenStakesByUser(ctx context.Context, userID string) ([]*models.UserStake, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserStake), args.Error(1)
}

func (m *MockMarketRepository) CountByState(ctx context.Context) (map[models.MarketState]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.MarketState]int64), args.Error(1)
}

func (m *MockMarketRepository) StakeTotals(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// MockMaintenanceRepository is a mock implementation of MaintenanceRepository
type MockMaintenanceRepository struct {
	mock.Mock
}

func (m *MockMaintenanceRepository) ResetAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	userRepo        UserRepository
	marketRepo      MarketRepository
	maintenanceRepo MaintenanceRepository
	eventBus        EventPublisher
}

// SetRepositories wires the repositories returned by the accessors
func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, marketRepo MarketRepository, maintenanceRepo MaintenanceRepository, eventBus EventPublisher) {
	m.userRepo = userRepo
	m.marketRepo = marketRepo
	m.maintenanceRepo = maintenanceRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) MarketRepository() MarketRepository {
	return m.marketRepo
}

func (m *MockUnitOfWork) MaintenanceRepository() MaintenanceRepository {
	return m.maintenanceRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
