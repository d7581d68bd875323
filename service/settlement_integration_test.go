package service_test

import (
	"context"
	"sync"
	"testing"

	"bookie/events"
	"bookie/repository"
	"bookie/repository/testutil"
	"bookie/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStack struct {
	ledger     service.LedgerService
	markets    service.MarketService
	settlement service.SettlementService
	stats      service.StatsService
	admin      service.AdminService
}

func setupStack(t *testing.T) *testStack {
	testDB := testutil.SetupTestDatabase(t)
	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	return &testStack{
		ledger:     service.NewLedgerService(uowFactory, 1000),
		markets:    service.NewMarketService(uowFactory, 1000),
		settlement: service.NewSettlementService(uowFactory, 1000),
		stats:      service.NewStatsService(uowFactory),
		admin:      service.NewAdminService(uowFactory),
	}
}

func TestSettlement_EndToEnd(t *testing.T) {
	t.Parallel()
	stack := setupStack(t)
	ctx := context.Background()

	// Seed three users at the starting balance
	for _, userID := range []string{"alice", "bob", "carol"} {
		balance, err := stack.ledger.GetBalance(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, int64(1000), balance)
	}

	detail, err := stack.markets.CreateMarket(ctx, "alice", "Coin flip", []string{"heads", "tails"}, "heads", 100)
	require.NoError(t, err)
	marketID := detail.Market.ID

	_, err = stack.markets.PlaceStake(ctx, marketID, "bob", "tails", 300)
	require.NoError(t, err)
	_, err = stack.markets.PlaceStake(ctx, marketID, "carol", "heads", 200)
	require.NoError(t, err)

	// Stakes are debited up front
	balance, err := stack.ledger.GetBalance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(700), balance)

	result, err := stack.settlement.ResolveMarket(ctx, marketID, "heads", true)
	require.NoError(t, err)
	assert.Equal(t, int64(600), result.TotalPot)
	require.Len(t, result.Winners, 2)

	// Pot of 600 split over 300 winning credits: alice 200, carol 400
	expected := map[string]int64{"alice": 1100, "bob": 700, "carol": 1200}
	var total int64
	for userID, want := range expected {
		balance, err := stack.ledger.GetBalance(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, want, balance, "balance of %s", userID)
		total += balance
	}
	// Credits are conserved across settlement
	assert.Equal(t, int64(3000), total)

	// The settled market rejects further stakes and settlements
	_, err = stack.markets.PlaceStake(ctx, marketID, "bob", "tails", 10)
	assert.ErrorIs(t, err, service.ErrMarketClosed)
	_, err = stack.settlement.ResolveMarket(ctx, marketID, "tails", true)
	assert.ErrorIs(t, err, service.ErrAlreadySettled)
}

func TestSettlement_VoidRestoresBalances(t *testing.T) {
	t.Parallel()
	stack := setupStack(t)
	ctx := context.Background()

	detail, err := stack.markets.CreateMarket(ctx, "alice", "Cancelled event", []string{"a", "b"}, "a", 150)
	require.NoError(t, err)

	_, err = stack.markets.PlaceStake(ctx, detail.Market.ID, "bob", "b", 400)
	require.NoError(t, err)

	result, err := stack.settlement.VoidMarket(ctx, detail.Market.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(550), result.TotalPot)
	require.Len(t, result.Refunds, 2)

	for _, userID := range []string{"alice", "bob"} {
		balance, err := stack.ledger.GetBalance(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), balance)
	}
}

func TestSettlement_NoWinnerRefunds(t *testing.T) {
	t.Parallel()
	stack := setupStack(t)
	ctx := context.Background()

	detail, err := stack.markets.CreateMarket(ctx, "alice", "Race result", []string{"red", "blue"}, "red", 250)
	require.NoError(t, err)

	_, err = stack.markets.PlaceStake(ctx, detail.Market.ID, "bob", "red", 100)
	require.NoError(t, err)

	// The outcome is recorded verbatim even when nobody staked on it
	result, err := stack.settlement.ResolveMarket(ctx, detail.Market.ID, "blue", true)
	require.NoError(t, err)
	assert.Empty(t, result.Winners)
	require.Len(t, result.Refunds, 2)

	for _, userID := range []string{"alice", "bob"} {
		balance, err := stack.ledger.GetBalance(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), balance)
	}

	// An outcome outside the option set behaves the same: recorded as given,
	// every stake refunded
	offList, err := stack.markets.CreateMarket(ctx, "alice", "Photo finish", []string{"red", "blue"}, "blue", 80)
	require.NoError(t, err)

	result, err = stack.settlement.ResolveMarket(ctx, offList.Market.ID, "abandoned", true)
	require.NoError(t, err)
	assert.Empty(t, result.Winners)
	require.Len(t, result.Refunds, 1)
	require.NotNil(t, result.Market.Outcome)
	assert.Equal(t, "abandoned", *result.Market.Outcome)

	balance, err := stack.ledger.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	settled, err := stack.markets.GetMarket(ctx, offList.Market.ID)
	require.NoError(t, err)
	require.NotNil(t, settled.Market.Outcome)
	assert.Equal(t, "abandoned", *settled.Market.Outcome)
}

func TestSettlement_ConcurrentResolutionIsExactlyOnce(t *testing.T) {
	t.Parallel()
	stack := setupStack(t)
	ctx := context.Background()

	detail, err := stack.markets.CreateMarket(ctx, "alice", "Contested call", []string{"yes", "no"}, "yes", 100)
	require.NoError(t, err)

	_, err = stack.markets.PlaceStake(ctx, detail.Market.ID, "bob", "no", 100)
	require.NoError(t, err)

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = stack.settlement.ResolveMarket(ctx, detail.Market.ID, "yes", true)
			} else {
				_, errs[i] = stack.settlement.VoidMarket(ctx, detail.Market.ID, true)
			}
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, service.ErrAlreadySettled)
		}
	}
	assert.Equal(t, 1, succeeded)

	// Whichever settlement won, no credits were created or destroyed
	var total int64
	for _, userID := range []string{"alice", "bob"} {
		balance, err := stack.ledger.GetBalance(ctx, userID)
		require.NoError(t, err)
		total += balance
	}
	assert.Equal(t, int64(2000), total)
}

func TestPlaceStake_ConcurrentOverdrawSerializes(t *testing.T) {
	t.Parallel()
	stack := setupStack(t)
	ctx := context.Background()

	detail, err := stack.markets.CreateMarket(ctx, "alice", "Oversubscribed", []string{"yes", "no"}, "yes", 10)
	require.NoError(t, err)

	// Bob holds 1000; five concurrent 300-credit stakes would overdraw by 500
	balance, err := stack.ledger.GetBalance(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, int64(1000), balance)

	const attempts = 5
	const amount = int64(300)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = stack.markets.PlaceStake(ctx, detail.Market.ID, "bob", "no", amount)
		}(i)
	}
	wg.Wait()

	// The balance row lock serializes the debits: exactly the affordable
	// three stakes land, the rest fail cleanly
	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, service.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 3, succeeded)

	balance, err = stack.ledger.GetBalance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1000-amount*int64(succeeded)), balance)
	assert.GreaterOrEqual(t, balance, int64(0))
}

func TestAdmin_ResetAll(t *testing.T) {
	t.Parallel()
	stack := setupStack(t)
	ctx := context.Background()

	_, err := stack.markets.CreateMarket(ctx, "alice", "Throwaway", []string{"x", "y"}, "x", 10)
	require.NoError(t, err)

	err = stack.admin.ResetAll(ctx, false)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	require.NoError(t, stack.admin.ResetAll(ctx, true))

	stats, err := stack.stats.GetSystemStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Users)
	assert.Zero(t, stats.OpenMarkets)
	assert.Zero(t, stats.Stakes)
}

func TestStats_SystemStats(t *testing.T) {
	t.Parallel()
	stack := setupStack(t)
	ctx := context.Background()

	first, err := stack.markets.CreateMarket(ctx, "alice", "First", []string{"yes", "no"}, "yes", 100)
	require.NoError(t, err)
	_, err = stack.markets.CreateMarket(ctx, "bob", "Second", []string{"yes", "no"}, "no", 50)
	require.NoError(t, err)

	_, err = stack.settlement.ResolveMarket(ctx, first.Market.ID, "yes", true)
	require.NoError(t, err)

	stats, err := stack.stats.GetSystemStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Users)
	assert.Equal(t, int64(1), stats.OpenMarkets)
	assert.Equal(t, int64(1), stats.ResolvedMarkets)
	assert.Equal(t, int64(2), stats.Stakes)
	assert.Equal(t, int64(150), stats.TotalStaked)
}
