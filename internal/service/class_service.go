package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ppisng/ppis-api/internal/models"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
)

type classRepo interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, error)
	FindByID(ctx context.Context, id string) (*models.ClassDetail, error)
	FindByFormTeacher(ctx context.Context, teacherID string) (*models.ClassDetail, error)
	Upsert(ctx context.Context, class *models.SchoolClass) error
	Delete(ctx context.Context, id string) error
}

// SaveClassRequest creates or updates a class.
type SaveClassRequest struct {
	ID            string `json:"id"`
	Name          string `json:"name" validate:"required"`
	Level         string `json:"level" validate:"required,oneof=JSS SS"`
	Arm           string `json:"arm"`
	FormTeacherID string `json:"form_teacher_id"`
}

// ClassService manages school classes.
type ClassService struct {
	classes   classRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(classes classRepo, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{classes: classes, validator: validate, logger: logger}
}

// List returns classes matching the filter.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, error) {
	classes, err := s.classes.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Get fetches a single class.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// ForFormTeacher returns the class assigned to a form teacher, if any.
func (s *ClassService) ForFormTeacher(ctx context.Context, teacherID string) (*models.ClassDetail, error) {
	class, err := s.classes.FindByFormTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no class assigned")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Save creates or updates a class.
func (s *ClassService) Save(ctx context.Context, req SaveClassRequest) (*models.SchoolClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class := models.SchoolClass{
		ID:    req.ID,
		Name:  req.Name,
		Level: models.ClassLevel(req.Level),
		Arm:   req.Arm,
	}
	if req.FormTeacherID != "" {
		class.FormTeacherID = &req.FormTeacherID
	}
	if err := s.classes.Upsert(ctx, &class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save class")
	}
	return &class, nil
}

// Delete removes a class.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if err := s.classes.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}
