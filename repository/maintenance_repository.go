package repository

import (
	"context"
	"fmt"

	"bookie/database"
)

// MaintenanceRepository implements destructive administrative operations
type MaintenanceRepository struct {
	q queryable
}

// NewMaintenanceRepository creates a new maintenance repository
func NewMaintenanceRepository(db *database.DB) *MaintenanceRepository {
	return &MaintenanceRepository{q: db.Pool}
}

// newMaintenanceRepositoryWithTx creates a maintenance repository bound to a transaction
func newMaintenanceRepositoryWithTx(tx queryable) *MaintenanceRepository {
	return &MaintenanceRepository{q: tx}
}

// ResetAll truncates every relation and restarts the ID sequences
func (r *MaintenanceRepository) ResetAll(ctx context.Context) error {
	query := `TRUNCATE stakes, markets, users RESTART IDENTITY CASCADE`

	if _, err := r.q.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}

	return nil
}
