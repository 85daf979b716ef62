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

type remarkRepo interface {
	ListByClass(ctx context.Context, classID string, term int, session string) ([]models.FormTeacherRemark, error)
	FindByStudent(ctx context.Context, studentID string, term int, session string) (*models.FormTeacherRemark, error)
	Upsert(ctx context.Context, remark *models.FormTeacherRemark) error
}

type remarkResultReader interface {
	StudentResult(ctx context.Context, studentID string, term int, session string) (*models.StudentResult, error)
}

// SaveRemarkRequest records a form teacher's remark on a term result.
type SaveRemarkRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	Remark    string `json:"remark" validate:"required"`
	Term      int    `json:"term" validate:"required,oneof=1 2 3"`
	Session   string `json:"session" validate:"required"`
}

// RemarkService manages form-teacher remarks. The student's class position is
// computed at write time and stored with the remark.
type RemarkService struct {
	remarks   remarkRepo
	results   remarkResultReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRemarkService constructs a RemarkService.
func NewRemarkService(remarks remarkRepo, results remarkResultReader, validate *validator.Validate, logger *zap.Logger) *RemarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemarkService{remarks: remarks, results: results, validator: validate, logger: logger}
}

// ListByClass returns remarks for a (class, term, session) scope.
func (s *RemarkService) ListByClass(ctx context.Context, classID string, term int, session string) ([]models.FormTeacherRemark, error) {
	remarks, err := s.remarks.ListByClass(ctx, classID, term, session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list remarks")
	}
	return remarks, nil
}

// ForStudent returns a student's remark for the scope, nil when none exists.
func (s *RemarkService) ForStudent(ctx context.Context, studentID string, term int, session string) (*models.FormTeacherRemark, error) {
	remark, err := s.remarks.FindByStudent(ctx, studentID, term, session)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load remark")
	}
	return remark, nil
}

// Save writes a remark, stamping it with the student's current position.
func (s *RemarkService) Save(ctx context.Context, req SaveRemarkRequest) (*models.FormTeacherRemark, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remark payload")
	}

	position := 0
	if result, err := s.results.StudentResult(ctx, req.StudentID, req.Term, req.Session); err == nil {
		position = result.Position
	} else {
		s.logger.Warn("failed to compute position for remark",
			zap.String("student_id", req.StudentID), zap.Error(err))
	}

	remark := models.FormTeacherRemark{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		Remark:    req.Remark,
		Term:      req.Term,
		Session:   req.Session,
		Position:  position,
	}
	if err := s.remarks.Upsert(ctx, &remark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save remark")
	}
	return &remark, nil
}
