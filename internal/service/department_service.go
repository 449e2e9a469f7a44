package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suportebot/helpdesk/internal/domain"
	"github.com/suportebot/helpdesk/internal/repository"
	"github.com/suportebot/helpdesk/pkg/util"
)

// DepartmentService exposes the department catalogue.
type DepartmentService struct {
	departments repository.DepartmentRepository
	logger      *zap.Logger
}

func NewDepartmentService(departments repository.DepartmentRepository, logger *zap.Logger) *DepartmentService {
	return &DepartmentService{departments: departments, logger: logger}
}

// EnsureSeed creates the starter departments when missing. Safe to run on
// every boot.
func (s *DepartmentService) EnsureSeed(ctx context.Context) error {
	for _, seed := range domain.SeedDepartments() {
		dept := &domain.Department{
			ID:          uuid.NewString(),
			Name:        seed.Name,
			Description: seed.Description,
			CreatedAt:   time.Now(),
		}
		if err := s.departments.Create(ctx, dept); err != nil {
			return err
		}
	}
	count, err := s.departments.Count(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("departments ready", zap.Int64("count", count))
	return nil
}

func (s *DepartmentService) List(ctx context.Context) ([]*domain.Department, error) {
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return depts, nil
}
