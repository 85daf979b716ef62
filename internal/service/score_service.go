package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ppisng/ppis-api/internal/models"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
)

type scoreRepo interface {
	List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error)
	Upsert(ctx context.Context, score *models.Score) error
	BulkUpsert(ctx context.Context, scores []models.Score) error
	SetApproved(ctx context.Context, classID string, term int, session string, approved bool) error
	SetPublished(ctx context.Context, classID string, term int, session string, published bool) error
	Delete(ctx context.Context, id string) error
}

// UpsertScoreRequest is a single score entry payload. The component bounds
// keep the subject total inside 0..100 by construction.
type UpsertScoreRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	SubjectID string  `json:"subject_id" validate:"required"`
	ClassID   string  `json:"class_id" validate:"required"`
	FirstCA   float64 `json:"first_ca" validate:"min=0,max=20"`
	SecondCA  float64 `json:"second_ca" validate:"min=0,max=20"`
	Exam      float64 `json:"exam" validate:"min=0,max=60"`
	Term      int     `json:"term" validate:"required,oneof=1 2 3"`
	Session   string  `json:"session" validate:"required"`
	Comment   string  `json:"comment"`
}

// BulkScoresRequest uploads a sheet of score entries for one scope. The batch
// is all-or-nothing: a single bad row rejects the sheet.
type BulkScoresRequest struct {
	Items []UpsertScoreRequest `json:"items" validate:"required,min=1,dive"`
}

// ScoreScopeRequest addresses every score in a (class, term, session) scope.
type ScoreScopeRequest struct {
	ClassID string `json:"class_id" validate:"required"`
	Term    int    `json:"term" validate:"required,oneof=1 2 3"`
	Session string `json:"session" validate:"required"`
}

// ScoreService orchestrates score entry and its draft → approved → published
// lifecycle.
type ScoreService struct {
	scores    scoreRepo
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScoreService constructs a ScoreService.
func NewScoreService(scores scoreRepo, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{scores: scores, cache: cache, validator: validate, logger: logger}
}

// List returns score entries matching the filter.
func (s *ScoreService) List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error) {
	scores, err := s.scores.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}
	return scores, nil
}

// Upsert records or updates one score entry.
func (s *ScoreService) Upsert(ctx context.Context, req UpsertScoreRequest) (*models.Score, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	score := scoreFromRequest(req)
	if err := s.scores.Upsert(ctx, &score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert score")
	}
	s.invalidate(ctx, score.ClassID, score.Term, score.Session)
	return &score, nil
}

// BulkUpsert records a whole sheet in one transaction; all rows must be valid
// and the write either lands completely or not at all.
func (s *ScoreService) BulkUpsert(ctx context.Context, req BulkScoresRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	scores := make([]models.Score, len(req.Items))
	for i, item := range req.Items {
		scores[i] = scoreFromRequest(item)
	}
	if err := s.scores.BulkUpsert(ctx, scores); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save score sheet")
	}
	seen := map[string]struct{}{}
	for _, score := range scores {
		scopeKey := fmt.Sprintf("%s:%d:%s", score.ClassID, score.Term, score.Session)
		if _, ok := seen[scopeKey]; ok {
			continue
		}
		seen[scopeKey] = struct{}{}
		s.invalidate(ctx, score.ClassID, score.Term, score.Session)
	}
	return len(scores), nil
}

// Approve flips form-teacher approval for the scope.
func (s *ScoreService) Approve(ctx context.Context, req ScoreScopeRequest, approved bool) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scope payload")
	}
	if err := s.scores.SetApproved(ctx, req.ClassID, req.Term, req.Session, approved); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update approval")
	}
	s.invalidate(ctx, req.ClassID, req.Term, req.Session)
	return nil
}

// Publish flips publication for the scope, making results visible to
// students.
func (s *ScoreService) Publish(ctx context.Context, req ScoreScopeRequest, published bool) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scope payload")
	}
	if err := s.scores.SetPublished(ctx, req.ClassID, req.Term, req.Session, published); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update publication")
	}
	s.invalidate(ctx, req.ClassID, req.Term, req.Session)
	return nil
}

// Delete removes a single score entry.
func (s *ScoreService) Delete(ctx context.Context, id string) error {
	if err := s.scores.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete score")
	}
	_ = s.cache.Invalidate(ctx, "results:*")
	return nil
}

func (s *ScoreService) invalidate(ctx context.Context, classID string, term int, session string) {
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("results:broadsheet:%s:%d:%s", classID, term, session))
}

func scoreFromRequest(req UpsertScoreRequest) models.Score {
	return models.Score{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		ClassID:   req.ClassID,
		FirstCA:   req.FirstCA,
		SecondCA:  req.SecondCA,
		Exam:      req.Exam,
		Term:      req.Term,
		Session:   req.Session,
		Comment:   req.Comment,
	}
}
