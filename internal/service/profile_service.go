package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppisng/ppis-api/internal/models"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
)

type profileRepo interface {
	List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error)
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindByUsername(ctx context.Context, forms []string, excludeID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	Delete(ctx context.Context, id string) error
}

// SeedProfileRequest pre-provisions a registry profile for someone who has
// not signed in yet. The password is stored as a plaintext pre-activation
// credential; activation replaces it with a proper hash and nulls it.
type SeedProfileRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=4"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=ADMIN FORM_TEACHER STUDENT"`
}

// ProfileService manages registry profiles.
type ProfileService struct {
	profiles  profileRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(profiles profileRepo, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{profiles: profiles, validator: validate, logger: logger}
}

// List returns profiles matching the filter.
func (s *ProfileService) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, *models.Pagination, error) {
	profiles, total, err := s.profiles.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profiles")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return profiles, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get fetches a single profile.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// Seed creates a registry profile ahead of the person's first login.
func (s *ProfileService) Seed(ctx context.Context, req SeedProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	if _, err := s.profiles.FindByUsername(ctx, usernameForms(req.Username), ""); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username")
	}

	password := req.Password
	profile := &models.Profile{
		ID:             uuid.NewString(),
		Username:       strings.ToLower(req.Username),
		LegacyPassword: &password,
		FullName:       req.FullName,
		Role:           models.Role(req.Role),
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed profile")
	}
	return profile, nil
}

// Delete removes a profile.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	if err := s.profiles.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete profile")
	}
	return nil
}
