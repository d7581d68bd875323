package repository

import (
	"context"
	"fmt"

	"bookie/database"
	"bookie/models"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository bound to a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// EnsureUser idempotently creates a balance row at the starting value.
// Returns true if a new row was created.
func (r *UserRepository) EnsureUser(ctx context.Context, userID string, startingBalance int64) (bool, error) {
	query := `
		INSERT INTO users (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query, userID, startingBalance)
	if err != nil {
		return false, fmt.Errorf("failed to ensure user %s: %w", userID, err)
	}

	return result.RowsAffected() > 0, nil
}

// GetByID retrieves a user by handle, or nil if unseen
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT user_id, balance FROM users WHERE user_id = $1`

	var user models.User
	err := r.q.QueryRow(ctx, query, userID).Scan(&user.UserID, &user.Balance)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}

	return &user, nil
}

// LockBalance reads a user's balance under a row-level exclusive lock.
// Must run inside a transaction; the lock is held until commit or rollback.
func (r *UserRepository) LockBalance(ctx context.Context, userID string) (int64, error) {
	query := `SELECT balance FROM users WHERE user_id = $1 FOR UPDATE`

	var balance int64
	if err := r.q.QueryRow(ctx, query, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to lock balance for user %s: %w", userID, err)
	}

	return balance, nil
}

// SetBalance overwrites a user's balance
func (r *UserRepository) SetBalance(ctx context.Context, userID string, newBalance int64) error {
	query := `UPDATE users SET balance = $1 WHERE user_id = $2`

	result, err := r.q.Exec(ctx, query, newBalance, userID)
	if err != nil {
		return fmt.Errorf("failed to set balance for user %s: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", userID)
	}

	return nil
}

// AddBalance credits amount to a user's balance
func (r *UserRepository) AddBalance(ctx context.Context, userID string, amount int64) error {
	query := `UPDATE users SET balance = balance + $1 WHERE user_id = $2`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to add balance for user %s: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", userID)
	}

	return nil
}

// ListBalancesExcluding returns all balances except those equal to the given
// value, richest first. Used to hide users still at the starting balance.
func (r *UserRepository) ListBalancesExcluding(ctx context.Context, balance int64) ([]*models.BalanceEntry, error) {
	query := `
		SELECT user_id, balance
		FROM users
		WHERE balance <> $1
		ORDER BY balance DESC, user_id
	`

	rows, err := r.q.Query(ctx, query, balance)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	var entries []*models.BalanceEntry
	for rows.Next() {
		var entry models.BalanceEntry
		if err := rows.Scan(&entry.UserID, &entry.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan balance entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}

	return entries, nil
}

// Count returns the number of user rows
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
