package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ppisng/ppis-api/internal/models"
	"github.com/ppisng/ppis-api/pkg/batch"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
)

type reconcileProfileRepo interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	FindByUsername(ctx context.Context, forms []string, excludeID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	UpdateUsername(ctx context.Context, id, username string) error
	Delete(ctx context.Context, id string) error
}

type reconcileStudentRepo interface {
	ReassignProfile(ctx context.Context, oldProfileID, newProfileID string) error
	AdoptLegacyID(ctx context.Context, legacyID, newProfileID string) error
}

type reconcileClassRepo interface {
	ReassignFormTeacher(ctx context.Context, oldTeacherID, newTeacherID string) error
}

type reconcileAssignmentRepo interface {
	ReassignTeacher(ctx context.Context, oldTeacherID, newTeacherID string) error
}

// ReconcileService stitches a pre-seeded registry profile to a freshly
// created auth identity on first login. Registry rows are created by
// administrators before the person ever signs in; the first authenticated
// session merges the two records under the new id and re-points every foreign
// key that referenced the old one.
type ReconcileService struct {
	profiles    reconcileProfileRepo
	students    reconcileStudentRepo
	classes     reconcileClassRepo
	assignments reconcileAssignmentRepo
	logger      *zap.Logger

	mu           sync.Mutex
	lastResolved string
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(profiles reconcileProfileRepo, students reconcileStudentRepo, classes reconcileClassRepo, assignments reconcileAssignmentRepo, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{
		profiles:    profiles,
		students:    students,
		classes:     classes,
		assignments: assignments,
		logger:      logger,
	}
}

// usernameForms returns the candidate handle in both historically valid
// separator spellings, lower-cased. Admission numbers were written with "/"
// on paper and "_" in email addresses, so both must match.
func usernameForms(handle string) []string {
	handle = strings.ToLower(strings.TrimSpace(handle))
	forms := []string{handle}
	if slash := strings.ReplaceAll(handle, "_", "/"); slash != handle {
		forms = append(forms, slash)
	}
	if underscore := strings.ReplaceAll(handle, "/", "_"); underscore != handle {
		forms = append(forms, underscore)
	}
	return forms
}

// Resolve maps an authenticated (id, email) pair to its application profile,
// merging a legacy registry row on first contact. A nil profile with a nil
// error means the identity has no registry row at all: the caller treats that
// as "role unassigned".
//
// The guard against re-running for the same id is best effort (it resets on
// restart), so every underlying step is idempotent: a second run finds the
// profile under id and short-circuits.
func (s *ReconcileService) Resolve(ctx context.Context, authID, email string) (*models.Profile, error) {
	if authID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "auth id required")
	}

	s.mu.Lock()
	alreadyResolved := s.lastResolved == authID
	s.mu.Unlock()

	profile, err := s.profiles.FindByID(ctx, authID)
	if err == nil {
		s.markResolved(authID)
		return profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("profile lookup failed during reconciliation", zap.String("auth_id", authID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve profile")
	}
	if alreadyResolved {
		// Guard hit but the profile is gone; fall through and retry the
		// merge rather than trusting stale state.
		s.logger.Warn("reconciliation guard hit without a profile", zap.String("auth_id", authID))
	}

	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}

	legacy, err := s.profiles.FindByUsername(ctx, usernameForms(local), authID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No registry row was ever seeded for this identity.
			return nil, nil
		}
		s.logger.Error("legacy profile search failed", zap.String("auth_id", authID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search registry")
	}

	merged, err := s.merge(ctx, authID, legacy, nil)
	if err != nil {
		return nil, err
	}
	s.markResolved(authID)
	return merged, nil
}

// merge runs the reconciliation saga: re-point foreign keys, upsert the
// profile under the new id, then delete the legacy row. Re-points are
// attempted independently and individual failures do not block the rest; the
// upsert is the commit point, and a failed upsert leaves the legacy row in
// place so nothing is lost.
func (s *ReconcileService) merge(ctx context.Context, newID string, legacy *models.Profile, passwordHash *string) (*models.Profile, error) {
	legacyID := legacy.ID

	results := batch.SettleAll(ctx,
		func(ctx context.Context) error { return s.students.ReassignProfile(ctx, legacyID, newID) },
		func(ctx context.Context) error { return s.students.AdoptLegacyID(ctx, legacyID, newID) },
		func(ctx context.Context) error { return s.classes.ReassignFormTeacher(ctx, legacyID, newID) },
		func(ctx context.Context) error { return s.assignments.ReassignTeacher(ctx, legacyID, newID) },
	)
	for _, failed := range batch.Failed(results) {
		s.logger.Warn("foreign key re-point failed during reconciliation",
			zap.String("legacy_id", legacyID), zap.String("new_id", newID),
			zap.Int("step", failed.Index), zap.Error(failed.Err))
	}

	merged := &models.Profile{
		ID:           newID,
		Username:     legacy.Username,
		FullName:     legacy.FullName,
		Role:         legacy.Role,
		PasswordHash: passwordHash,
		// The plaintext registry password dies here; credentials now live
		// only in the auth system.
		LegacyPassword: nil,
	}
	if err := s.profiles.Upsert(ctx, merged); err != nil {
		s.logger.Error("profile upsert failed during reconciliation; legacy row kept",
			zap.String("legacy_id", legacyID), zap.String("new_id", newID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to merge profile")
	}

	if err := s.profiles.Delete(ctx, legacyID); err != nil {
		s.logger.Warn("failed to delete legacy profile after merge",
			zap.String("legacy_id", legacyID), zap.Error(err))
	}

	return merged, nil
}

// Activate performs first-time account activation from the sign-in screen: a
// legacy registry row is matched by username, its plaintext password checked,
// and the row is merged under a freshly minted identity carrying a proper
// password hash. The legacy row is parked under a throwaway username while
// the new row is created so the two never clash on the uniqueness constraint;
// a failed creation rolls the rename back.
func (s *ReconcileService) Activate(ctx context.Context, username, password string) (*models.Profile, error) {
	legacy, err := s.profiles.FindByUsername(ctx, usernameForms(username), "")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRegistryNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search registry")
	}

	if legacy.LegacyPassword == nil || *legacy.LegacyPassword != password {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	hashStr := string(hash)

	originalUsername := legacy.Username
	tempUsername := "__migrating__" + uuid.NewString()
	if err := s.profiles.UpdateUsername(ctx, legacy.ID, tempUsername); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage activation")
	}

	newID := uuid.NewString()
	merged, err := s.merge(ctx, newID, &models.Profile{
		ID:       legacy.ID,
		Username: originalUsername,
		FullName: legacy.FullName,
		Role:     legacy.Role,
	}, &hashStr)
	if err != nil {
		if rollbackErr := s.profiles.UpdateUsername(ctx, legacy.ID, originalUsername); rollbackErr != nil {
			s.logger.Error("failed to roll back activation rename",
				zap.String("profile_id", legacy.ID), zap.Error(rollbackErr))
		}
		return nil, err
	}

	s.markResolved(newID)
	return merged, nil
}

func (s *ReconcileService) markResolved(id string) {
	s.mu.Lock()
	s.lastResolved = id
	s.mu.Unlock()
}
