package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ppisng/ppis-api/internal/models"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
)

type authProfileRepo interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindByUsername(ctx context.Context, forms []string, excludeID string) (*models.Profile, error)
	Count(ctx context.Context, role *models.Role) (int, error)
	Upsert(ctx context.Context, profile *models.Profile) error
}

type accountActivator interface {
	Activate(ctx context.Context, username, password string) (*models.Profile, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	TokenSecret string
	TokenExpiry time.Duration
	Issuer      string
}

// AssignInitialRole is the bootstrap policy applied once at signup: the very
// first profile in an empty store becomes the administrator, everyone after
// that starts as a student until an admin says otherwise.
func AssignInitialRole(existingProfileCount int) models.Role {
	if existingProfileCount == 0 {
		return models.RoleAdmin
	}
	return models.RoleStudent
}

// AuthService provides authentication use cases.
type AuthService struct {
	profiles  authProfileRepo
	activator accountActivator
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(profiles authProfileRepo, activator accountActivator, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{profiles: profiles, activator: activator, validator: validate, logger: logger, config: config}
}

// Login authenticates a profile by username and password. Profiles that have
// never signed in before carry only a registry password; those go through the
// activation flow, which migrates the credentials and merges the identity.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	profile, err := s.profiles.FindByUsername(ctx, usernameForms(req.Username), "")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRegistryNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch profile")
	}

	if profile.PasswordHash == nil {
		activated, err := s.activator.Activate(ctx, req.Username, req.Password)
		if err != nil {
			return nil, err
		}
		return s.issue(activated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	return s.issue(profile)
}

// Signup registers a brand-new account that has no registry row. The role is
// decided by the bootstrap policy, not by the caller.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup payload")
	}

	if _, err := s.profiles.FindByUsername(ctx, usernameForms(req.Username), ""); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username")
	}

	count, err := s.profiles.Count(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count profiles")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	hashStr := string(hash)

	profile := &models.Profile{
		ID:           uuid.NewString(),
		Username:     strings.ToLower(req.Username),
		FullName:     req.FullName,
		Role:         AssignInitialRole(count),
		PasswordHash: &hashStr,
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create profile")
	}

	return s.issue(profile)
}

// Me loads the profile behind a token subject.
func (s *AuthService) Me(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// ValidateToken parses and validates an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected signing method")
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) issue(profile *models.Profile) (*models.LoginResponse, error) {
	now := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID:   profile.ID,
		Role:     profile.Role,
		Username: profile.Username,
		FullName: profile.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.config.TokenExpiry.Seconds()),
		IssuedAt:    now,
		User: models.ProfileInfo{
			ID:       profile.ID,
			Username: profile.Username,
			FullName: profile.FullName,
			Role:     profile.Role,
		},
	}, nil
}
