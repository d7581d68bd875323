package repository

import (
	"context"
	"fmt"

	"bookie/database"
	"bookie/models"

	"github.com/jackc/pgx/v5"
)

// MarketRepository implements all market and stake related data access
type MarketRepository struct {
	q queryable
}

// NewMarketRepository creates a new market repository
func NewMarketRepository(db *database.DB) *MarketRepository {
	return &MarketRepository{q: db.Pool}
}

// newMarketRepositoryWithTx creates a new market repository bound to a transaction
func newMarketRepositoryWithTx(tx queryable) *MarketRepository {
	return &MarketRepository{q: tx}
}

// Create inserts a new market row and fills in its ID and creation timestamp
func (r *MarketRepository) Create(ctx context.Context, market *models.Market) error {
	query := `
		INSERT INTO markets (question, options, creator_id, state)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		market.Question,
		market.Options,
		market.CreatorID,
		market.State,
	).Scan(&market.ID, &market.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create market: %w", err)
	}

	return nil
}

const marketColumns = `id, question, options, creator_id, state, outcome, created_at`

func scanMarket(row pgx.Row) (*models.Market, error) {
	var market models.Market
	err := row.Scan(
		&market.ID,
		&market.Question,
		&market.Options,
		&market.CreatorID,
		&market.State,
		&market.Outcome,
		&market.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// GetByID retrieves a market by its ID, or nil if no such market
func (r *MarketRepository) GetByID(ctx context.Context, id int64) (*models.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE id = $1`

	market, err := scanMarket(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market %d: %w", id, err)
	}

	return market, nil
}

// GetByIDForUpdate retrieves a market under a row-level exclusive lock so
// that at most one settlement of it can proceed. Must run in a transaction.
func (r *MarketRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE id = $1 FOR UPDATE`

	market, err := scanMarket(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock market %d: %w", id, err)
	}

	return market, nil
}

// MarkResolved transitions an open market to resolved with the given outcome
func (r *MarketRepository) MarkResolved(ctx context.Context, id int64, outcome string) error {
	query := `
		UPDATE markets
		SET state = $1, outcome = $2
		WHERE id = $3 AND state = $4
	`

	result, err := r.q.Exec(ctx, query, models.MarketStateResolved, outcome, id, models.MarketStateOpen)
	if err != nil {
		return fmt.Errorf("failed to resolve market %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("market %d is not open", id)
	}

	return nil
}

// MarkVoided transitions an open market to voided
func (r *MarketRepository) MarkVoided(ctx context.Context, id int64) error {
	query := `
		UPDATE markets
		SET state = $1
		WHERE id = $2 AND state = $3
	`

	result, err := r.q.Exec(ctx, query, models.MarketStateVoided, id, models.MarketStateOpen)
	if err != nil {
		return fmt.Errorf("failed to void market %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("market %d is not open", id)
	}

	return nil
}

// ListOpen returns all open markets, newest first
func (r *MarketRepository) ListOpen(ctx context.Context) ([]*models.Market, error) {
	query := `
		SELECT ` + marketColumns + `
		FROM markets
		WHERE state = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.q.Query(ctx, query, models.MarketStateOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to list open markets: %w", err)
	}
	defer rows.Close()

	var markets []*models.Market
	for rows.Next() {
		market, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market: %w", err)
		}
		markets = append(markets, market)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate markets: %w", err)
	}

	return markets, nil
}

// InsertStake creates an immutable stake row and fills in its ID
func (r *MarketRepository) InsertStake(ctx context.Context, stake *models.Stake) error {
	query := `
		INSERT INTO stakes (market_id, user_id, option, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		stake.MarketID,
		stake.UserID,
		stake.Option,
		stake.Amount,
	).Scan(&stake.ID)

	if err != nil {
		return fmt.Errorf("failed to insert stake: %w", err)
	}

	return nil
}

// ListStakesByMarket returns all stakes on a market in placement order
func (r *MarketRepository) ListStakesByMarket(ctx context.Context, marketID int64) ([]*models.Stake, error) {
	query := `
		SELECT id, market_id, user_id, option, amount
		FROM stakes
		WHERE market_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakes for market %d: %w", marketID, err)
	}
	defer rows.Close()

	return scanStakes(rows)
}

// ListStakesByMarkets returns stakes for a set of markets grouped by market ID
func (r *MarketRepository) ListStakesByMarkets(ctx context.Context, marketIDs []int64) (map[int64][]*models.Stake, error) {
	if len(marketIDs) == 0 {
		return map[int64][]*models.Stake{}, nil
	}

	query := `
		SELECT id, market_id, user_id, option, amount
		FROM stakes
		WHERE market_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, marketIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakes for markets: %w", err)
	}
	defer rows.Close()

	stakes, err := scanStakes(rows)
	if err != nil {
		return nil, err
	}

	byMarket := make(map[int64][]*models.Stake)
	for _, stake := range stakes {
		byMarket[stake.MarketID] = append(byMarket[stake.MarketID], stake)
	}
	return byMarket, nil
}

// ListOpenStakesByUser returns a user's stakes on open markets joined with
// each market's question, newest market first
func (r *MarketRepository) ListOpenStakesByUser(ctx context.Context, userID string) ([]*models.UserStake, error) {
	query := `
		SELECT m.id, m.question, s.id, s.market_id, s.user_id, s.option, s.amount
		FROM stakes s
		JOIN markets m ON m.id = s.market_id
		WHERE m.state = $1 AND s.user_id = $2
		ORDER BY m.created_at DESC, s.id
	`

	rows, err := r.q.Query(ctx, query, models.MarketStateOpen, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open stakes for user %s: %w", userID, err)
	}
	defer rows.Close()

	var userStakes []*models.UserStake
	for rows.Next() {
		var us models.UserStake
		var stake models.Stake
		err := rows.Scan(
			&us.MarketID,
			&us.Question,
			&stake.ID,
			&stake.MarketID,
			&stake.UserID,
			&stake.Option,
			&stake.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user stake: %w", err)
		}
		us.Stake = &stake
		userStakes = append(userStakes, &us)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user stakes: %w", err)
	}

	return userStakes, nil
}

// CountByState returns the number of markets in each lifecycle state
func (r *MarketRepository) CountByState(ctx context.Context) (map[models.MarketState]int64, error) {
	query := `SELECT state, COUNT(*) FROM markets GROUP BY state`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count markets by state: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.MarketState]int64)
	for rows.Next() {
		var state models.MarketState
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan market count: %w", err)
		}
		counts[state] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate market counts: %w", err)
	}

	return counts, nil
}

// StakeTotals returns the overall stake count and the sum of staked amounts
func (r *MarketRepository) StakeTotals(ctx context.Context) (count int64, total int64, err error) {
	query := `SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM stakes`

	if err := r.q.QueryRow(ctx, query).Scan(&count, &total); err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate stakes: %w", err)
	}

	return count, total, nil
}

func scanStakes(rows pgx.Rows) ([]*models.Stake, error) {
	var stakes []*models.Stake
	for rows.Next() {
		var stake models.Stake
		err := rows.Scan(
			&stake.ID,
			&stake.MarketID,
			&stake.UserID,
			&stake.Option,
			&stake.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stake: %w", err)
		}
		stakes = append(stakes, &stake)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stakes: %w", err)
	}
	return stakes, nil
}
