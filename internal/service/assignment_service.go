package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ppisng/ppis-api/internal/models"
	"github.com/ppisng/ppis-api/pkg/batch"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
)

type assignmentRepo interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, error)
	Create(ctx context.Context, assignment *models.TeacherSubjectAssignment) error
	Delete(ctx context.Context, id string) error
}

// AssignmentItem is one (subject, class) pair within a bulk assignment.
type AssignmentItem struct {
	SubjectID string `json:"subject_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
}

// AssignSubjectsRequest maps one teacher to many subject/class pairs in a
// single strict batch.
type AssignSubjectsRequest struct {
	TeacherID string           `json:"teacher_id" validate:"required"`
	Items     []AssignmentItem `json:"items" validate:"required,min=1,dive"`
}

// AssignmentService manages teacher workload mappings.
type AssignmentService struct {
	assignments assignmentRepo
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(assignments assignmentRepo, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{assignments: assignments, validator: validate, logger: logger}
}

// List returns assignments matching the filter.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	assignments, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Assign creates every requested mapping as an independent write; all of them
// must succeed for the assignment to report success.
func (s *AssignmentService) Assign(ctx context.Context, req AssignSubjectsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	tasks := make([]batch.Task, len(req.Items))
	for i, item := range req.Items {
		item := item
		tasks[i] = func(ctx context.Context) error {
			return s.assignments.Create(ctx, &models.TeacherSubjectAssignment{
				TeacherID: req.TeacherID,
				SubjectID: item.SubjectID,
				ClassID:   item.ClassID,
			})
		}
	}
	if err := batch.RunAll(ctx, tasks...); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign subjects")
	}
	return nil
}

// Remove deletes a single assignment row.
func (s *AssignmentService) Remove(ctx context.Context, id string) error {
	if err := s.assignments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}
