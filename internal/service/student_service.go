package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/absensi-api/internal/models"
	appErrors "github.com/noah-isme/absensi-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByCardID(ctx context.Context, cardID string) (*models.Student, error)
}

// StudentService exposes read access to the student registry.
type StudentService struct {
	repo   studentRepository
	logger *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// List returns registry entries matching filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Class = strings.TrimSpace(filter.Class)
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list students", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// FindByCard resolves a scanner card id.
func (s *StudentService) FindByCard(ctx context.Context, cardID string) (*models.Student, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "card id is required")
	}
	student, err := s.repo.FindByCardID(ctx, cardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "card not registered")
		}
		s.logger.Error("find student by card", zap.String("card_id", cardID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}
