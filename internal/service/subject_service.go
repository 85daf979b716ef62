package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ppisng/ppis-api/internal/models"
	"github.com/ppisng/ppis-api/pkg/batch"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
)

type subjectRepo interface {
	List(ctx context.Context, category string) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Upsert(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type subjectScoreCascade interface {
	DeleteBySubject(ctx context.Context, subjectID string) error
}

type subjectAssignmentCascade interface {
	DeleteBySubject(ctx context.Context, subjectID string) error
}

// SaveSubjectRequest creates or updates a subject.
type SaveSubjectRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required"`
	Category string `json:"category" validate:"required"`
}

// SubjectService manages the subject catalogue. Removing a subject cascades
// into its scores and teacher assignments; the cascade is strict, so a
// partial removal is reported as a failure.
type SubjectService struct {
	subjects    subjectRepo
	scores      subjectScoreCascade
	assignments subjectAssignmentCascade
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(subjects subjectRepo, scores subjectScoreCascade, assignments subjectAssignmentCascade, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{subjects: subjects, scores: scores, assignments: assignments, cache: cache, validator: validate, logger: logger}
}

// List returns subjects, optionally scoped to a category.
func (s *SubjectService) List(ctx context.Context, category string) ([]models.Subject, error) {
	subjects, err := s.subjects.List(ctx, category)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Save creates or updates a subject.
func (s *SubjectService) Save(ctx context.Context, req SaveSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject := models.Subject{ID: req.ID, Name: req.Name, Category: req.Category}
	if err := s.subjects.Upsert(ctx, &subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save subject")
	}
	return &subject, nil
}

// Delete removes a subject along with its scores and assignments.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.subjects.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	err := batch.RunAll(ctx,
		func(ctx context.Context) error { return s.scores.DeleteBySubject(ctx, id) },
		func(ctx context.Context) error { return s.assignments.DeleteBySubject(ctx, id) },
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove subject records")
	}

	if err := s.subjects.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	_ = s.cache.Invalidate(ctx, "results:*")
	return nil
}
