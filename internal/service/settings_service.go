package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ppisng/ppis-api/internal/models"
	"github.com/ppisng/ppis-api/pkg/config"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
)

type settingsRepo interface {
	Get(ctx context.Context) (*models.SchoolSettings, error)
	Upsert(ctx context.Context, settings *models.SchoolSettings) error
}

// UpdateSettingsRequest replaces the singleton settings row.
type UpdateSettingsRequest struct {
	SchoolName     string `json:"school_name" validate:"required"`
	LogoURL        string `json:"logo_url"`
	Motto          string `json:"motto"`
	PrimaryColor   string `json:"primary_color"`
	CurrentTerm    int    `json:"current_term" validate:"required,oneof=1 2 3"`
	CurrentSession string `json:"current_session" validate:"required"`
}

// SettingsService serves the singleton school settings, substituting a
// configured default when no row has been written yet.
type SettingsService struct {
	settings  settingsRepo
	fallback  config.SchoolConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(settings settingsRepo, fallback config.SchoolConfig, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{settings: settings, fallback: fallback, validator: validate, logger: logger}
}

// Get returns the current settings or the hardcoded default.
func (s *SettingsService) Get(ctx context.Context) (*models.SchoolSettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.defaults(), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	return settings, nil
}

// Update replaces the settings row.
func (s *SettingsService) Update(ctx context.Context, req UpdateSettingsRequest) (*models.SchoolSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	settings := models.SchoolSettings{
		SchoolName:     req.SchoolName,
		LogoURL:        req.LogoURL,
		Motto:          req.Motto,
		PrimaryColor:   req.PrimaryColor,
		CurrentTerm:    req.CurrentTerm,
		CurrentSession: req.CurrentSession,
	}
	if err := s.settings.Upsert(ctx, &settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	return &settings, nil
}

func (s *SettingsService) defaults() *models.SchoolSettings {
	return &models.SchoolSettings{
		SchoolName:     s.fallback.DefaultName,
		LogoURL:        s.fallback.DefaultLogoURL,
		Motto:          s.fallback.DefaultMotto,
		PrimaryColor:   s.fallback.DefaultColor,
		CurrentTerm:    1,
		CurrentSession: s.fallback.DefaultSession,
	}
}
