package service

import (
	"context"
	"testing"

	"bookie/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMarketService_CreateMarket_Validation(t *testing.T) {
	m := newServiceMocks()
	svc := NewMarketService(m.factory, 1000)
	ctx := context.Background()

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := svc.CreateMarket(ctx, "alice", "q", []string{"yes", "no"}, "yes", 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = svc.CreateMarket(ctx, "alice", "q", []string{"yes", "no"}, "yes", -5)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects fewer than two options", func(t *testing.T) {
		_, err := svc.CreateMarket(ctx, "alice", "q", []string{"yes"}, "yes", 10)
		assert.ErrorIs(t, err, ErrInvalidOptions)

		_, err = svc.CreateMarket(ctx, "alice", "q", []string{"yes", "  "}, "yes", 10)
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})

	t.Run("rejects duplicate options", func(t *testing.T) {
		_, err := svc.CreateMarket(ctx, "alice", "q", []string{"yes", "YES"}, "yes", 10)
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})

	t.Run("rejects a choice outside the options", func(t *testing.T) {
		_, err := svc.CreateMarket(ctx, "alice", "q", []string{"yes", "no"}, "maybe", 10)
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})

	// None of the rejected calls should have opened a transaction
	m.factory.AssertNotCalled(t, "Create")
}

func TestMarketService_CreateMarket(t *testing.T) {
	t.Run("debits the creator and places the first stake", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewMarketService(m.factory, 1000)

		m.userRepo.On("EnsureUser", mock.Anything, "alice", int64(1000)).Return(false, nil)
		m.userRepo.On("LockBalance", mock.Anything, "alice").Return(int64(1000), nil)
		m.userRepo.On("SetBalance", mock.Anything, "alice", int64(900)).Return(nil)

		m.marketRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Market).ID = 7
		}).Return(nil)
		m.marketRepo.On("InsertStake", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Stake).ID = 11
		}).Return(nil)

		detail, err := svc.CreateMarket(context.Background(), "alice", " Will it rain? ", []string{" yes ", "no"}, "yes", 100)
		require.NoError(t, err)

		assert.Equal(t, int64(7), detail.Market.ID)
		assert.Equal(t, "Will it rain?", detail.Market.Question)
		assert.Equal(t, []string{"yes", "no"}, detail.Market.Options)
		assert.Equal(t, models.MarketStateOpen, detail.Market.State)

		require.Len(t, detail.Stakes, 1)
		assert.Equal(t, int64(7), detail.Stakes[0].MarketID)
		assert.Equal(t, "alice", detail.Stakes[0].UserID)
		assert.Equal(t, "yes", detail.Stakes[0].Option)
		assert.Equal(t, int64(100), detail.Stakes[0].Amount)

		m.uow.AssertCalled(t, "Commit")
	})

	t.Run("fails atomically when the creator cannot cover the stake", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewMarketService(m.factory, 1000)

		m.userRepo.On("EnsureUser", mock.Anything, "alice", int64(1000)).Return(false, nil)
		m.userRepo.On("LockBalance", mock.Anything, "alice").Return(int64(50), nil)

		_, err := svc.CreateMarket(context.Background(), "alice", "q", []string{"yes", "no"}, "yes", 100)
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		m.marketRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.uow.AssertNotCalled(t, "Commit")
	})
}

func TestMarketService_PlaceStake(t *testing.T) {
	openMarket := func() *models.Market {
		return &models.Market{
			ID:        3,
			Question:  "Coin flip",
			Options:   []string{"heads", "tails"},
			CreatorID: "alice",
			State:     models.MarketStateOpen,
		}
	}

	t.Run("rejects non-positive amount", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewMarketService(m.factory, 1000)

		_, err := svc.PlaceStake(context.Background(), 3, "bob", "heads", 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("unknown market", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewMarketService(m.factory, 1000)

		m.marketRepo.On("GetByID", mock.Anything, int64(3)).Return(nil, nil)

		_, err := svc.PlaceStake(context.Background(), 3, "bob", "heads", 50)
		assert.ErrorIs(t, err, ErrMarketNotFound)
	})

	t.Run("settled market", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewMarketService(m.factory, 1000)

		market := openMarket()
		market.State = models.MarketStateResolved
		m.marketRepo.On("GetByID", mock.Anything, int64(3)).Return(market, nil)

		_, err := svc.PlaceStake(context.Background(), 3, "bob", "heads", 50)
		assert.ErrorIs(t, err, ErrMarketClosed)
	})

	t.Run("option not on the market", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewMarketService(m.factory, 1000)

		m.marketRepo.On("GetByID", mock.Anything, int64(3)).Return(openMarket(), nil)

		_, err := svc.PlaceStake(context.Background(), 3, "bob", "edge", 50)
		assert.ErrorIs(t, err, ErrInvalidOption)
	})

	t.Run("debits and records the stake", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewMarketService(m.factory, 1000)

		m.marketRepo.On("GetByID", mock.Anything, int64(3)).Return(openMarket(), nil)
		m.userRepo.On("EnsureUser", mock.Anything, "bob", int64(1000)).Return(true, nil)
		m.userRepo.On("LockBalance", mock.Anything, "bob").Return(int64(1000), nil)
		m.userRepo.On("SetBalance", mock.Anything, "bob", int64(950)).Return(nil)
		m.marketRepo.On("InsertStake", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Stake).ID = 21
		}).Return(nil)

		stake, err := svc.PlaceStake(context.Background(), 3, "bob", "heads", 50)
		require.NoError(t, err)
		assert.Equal(t, int64(21), stake.ID)
		assert.Equal(t, "heads", stake.Option)
		m.uow.AssertCalled(t, "Commit")
	})

	t.Run("option matching ignores case", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewMarketService(m.factory, 1000)

		m.marketRepo.On("GetByID", mock.Anything, int64(3)).Return(openMarket(), nil)
		m.userRepo.On("EnsureUser", mock.Anything, "bob", int64(1000)).Return(false, nil)
		m.userRepo.On("LockBalance", mock.Anything, "bob").Return(int64(1000), nil)
		m.userRepo.On("SetBalance", mock.Anything, "bob", int64(950)).Return(nil)
		m.marketRepo.On("InsertStake", mock.Anything, mock.Anything).Return(nil)

		stake, err := svc.PlaceStake(context.Background(), 3, "bob", " HEADS ", 50)
		require.NoError(t, err)
		assert.Equal(t, "HEADS", stake.Option)
	})
}

func TestMarketService_GetMarket(t *testing.T) {
	t.Run("unknown market is nil", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewMarketService(m.factory, 1000)

		m.marketRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)

		detail, err := svc.GetMarket(context.Background(), 99)
		require.NoError(t, err)
		assert.Nil(t, detail)
	})

	t.Run("returns the market with its stakes", func(t *testing.T) {
		m := newServiceMocks()
		svc := NewMarketService(m.factory, 1000)

		market := &models.Market{ID: 5, State: models.MarketStateOpen}
		stakes := []*models.Stake{
			{ID: 1, MarketID: 5, UserID: "alice", Option: "yes", Amount: 100},
			{ID: 2, MarketID: 5, UserID: "bob", Option: "no", Amount: 40},
		}
		m.marketRepo.On("GetByID", mock.Anything, int64(5)).Return(market, nil)
		m.marketRepo.On("ListStakesByMarket", mock.Anything, int64(5)).Return(stakes, nil)

		detail, err := svc.GetMarket(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, market, detail.Market)
		assert.Equal(t, stakes, detail.Stakes)
		assert.Equal(t, int64(140), detail.TotalPot())
	})
}

func TestMarketService_ListOpenMarkets(t *testing.T) {
	m := newServiceMocks()
	svc := NewMarketService(m.factory, 1000)

	markets := []*models.Market{
		{ID: 2, State: models.MarketStateOpen},
		{ID: 1, State: models.MarketStateOpen},
	}
	stakes := map[int64][]*models.Stake{
		2: {{ID: 9, MarketID: 2, UserID: "alice", Option: "yes", Amount: 30}},
	}
	m.marketRepo.On("ListOpen", mock.Anything).Return(markets, nil)
	m.marketRepo.On("ListStakesByMarkets", mock.Anything, []int64{2, 1}).Return(stakes, nil)

	details, err := svc.ListOpenMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Len(t, details[0].Stakes, 1)
	assert.Empty(t, details[1].Stakes)
}
