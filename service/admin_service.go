package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// adminService implements the AdminService interface
type adminService struct {
	uowFactory UnitOfWorkFactory
}

// NewAdminService creates a new admin service
func NewAdminService(uowFactory UnitOfWorkFactory) AdminService {
	return &adminService{
		uowFactory: uowFactory,
	}
}

// ResetAll truncates every relation. Destructive; admin only.
func (s *adminService) ResetAll(ctx context.Context, isAdmin bool) error {
	if !isAdmin {
		return fmt.Errorf("store reset requires admin: %w", ErrUnauthorized)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.MaintenanceRepository().ResetAll(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Warn("Store reset: all users, markets and stakes truncated")
	return nil
}
