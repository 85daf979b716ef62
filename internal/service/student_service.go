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

type studentRepo interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByAdmissionNumber(ctx context.Context, admissionNumber string) (*models.StudentDetail, error)
	Upsert(ctx context.Context, student *models.Student) error
	UpdateClass(ctx context.Context, studentID, classID string) error
	Delete(ctx context.Context, id string) error
}

// SaveStudentRequest creates or updates a student record.
type SaveStudentRequest struct {
	ID              string `json:"id"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Gender          string `json:"gender" validate:"required,oneof=male female"`
	ClassID         string `json:"class_id"`
	AdmissionNumber string `json:"admission_number" validate:"required"`
	ParentName      string `json:"parent_name"`
	ParentPhone     string `json:"parent_phone"`
	ParentEmail     string `json:"parent_email" validate:"omitempty,email"`
}

// PromoteStudentsRequest moves a set of students into a new class. The batch
// is strict: every move must succeed for the promotion to report success.
type PromoteStudentsRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1"`
	ClassID    string   `json:"class_id" validate:"required"`
}

// StudentService manages student records and promotions.
type StudentService struct {
	students  studentRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentRepo, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, validator: validate, logger: logger}
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Save creates or updates a student record.
func (s *StudentService) Save(ctx context.Context, req SaveStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	if req.ID == "" {
		if existing, err := s.students.FindByAdmissionNumber(ctx, req.AdmissionNumber); err == nil && existing != nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "admission number already registered")
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check admission number")
		}
	}

	student := models.Student{
		ID:              req.ID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Gender:          req.Gender,
		AdmissionNumber: req.AdmissionNumber,
		ParentName:      req.ParentName,
		ParentPhone:     req.ParentPhone,
		ParentEmail:     req.ParentEmail,
	}
	if req.ClassID != "" {
		student.ClassID = &req.ClassID
	}
	if err := s.students.Upsert(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save student")
	}
	return &student, nil
}

// Promote moves every listed student into the target class. Each move is an
// independent request; the promotion reports success only when all of them
// landed.
func (s *StudentService) Promote(ctx context.Context, req PromoteStudentsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid promotion payload")
	}

	tasks := make([]batch.Task, len(req.StudentIDs))
	for i, studentID := range req.StudentIDs {
		studentID := studentID
		tasks[i] = func(ctx context.Context) error {
			return s.students.UpdateClass(ctx, studentID, req.ClassID)
		}
	}
	if err := batch.RunAll(ctx, tasks...); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to promote students")
	}
	return nil
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
