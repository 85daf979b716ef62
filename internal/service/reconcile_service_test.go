package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ppisng/ppis-api/internal/models"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
)

type mockProfileStore struct {
	profiles map[string]*models.Profile

	upsertErr   error
	deleteErr   error
	findByIDErr error
}

func newMockProfileStore(profiles ...*models.Profile) *mockProfileStore {
	store := &mockProfileStore{profiles: make(map[string]*models.Profile)}
	for _, p := range profiles {
		copied := *p
		store.profiles[p.ID] = &copied
	}
	return store
}

func (m *mockProfileStore) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if p, ok := m.profiles[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileStore) FindByUsername(ctx context.Context, forms []string, excludeID string) (*models.Profile, error) {
	for _, p := range m.profiles {
		if p.ID == excludeID {
			continue
		}
		for _, form := range forms {
			if strings.EqualFold(p.Username, form) {
				copied := *p
				return &copied, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileStore) Upsert(ctx context.Context, profile *models.Profile) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	copied := *profile
	m.profiles[profile.ID] = &copied
	return nil
}

func (m *mockProfileStore) UpdateUsername(ctx context.Context, id, username string) error {
	p, ok := m.profiles[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Username = username
	return nil
}

func (m *mockProfileStore) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.profiles, id)
	return nil
}

func (m *mockProfileStore) Count(ctx context.Context, role *models.Role) (int, error) {
	count := 0
	for _, p := range m.profiles {
		if role != nil && p.Role != *role {
			continue
		}
		count++
	}
	return count, nil
}

type mockStudentStore struct {
	profileIDs map[string]*string // student id -> profile id
	reassigned [][2]string
	adoptErr   error
}

func (m *mockStudentStore) ReassignProfile(ctx context.Context, oldProfileID, newProfileID string) error {
	m.reassigned = append(m.reassigned, [2]string{oldProfileID, newProfileID})
	for studentID, profileID := range m.profileIDs {
		if profileID != nil && *profileID == oldProfileID {
			id := newProfileID
			m.profileIDs[studentID] = &id
		}
	}
	return nil
}

func (m *mockStudentStore) AdoptLegacyID(ctx context.Context, legacyID, newProfileID string) error {
	if m.adoptErr != nil {
		return m.adoptErr
	}
	if _, ok := m.profileIDs[legacyID]; ok {
		id := newProfileID
		m.profileIDs[legacyID] = &id
	}
	return nil
}

type mockClassStore struct {
	formTeachers map[string]string // class id -> teacher id
}

func (m *mockClassStore) ReassignFormTeacher(ctx context.Context, oldTeacherID, newTeacherID string) error {
	for classID, teacherID := range m.formTeachers {
		if teacherID == oldTeacherID {
			m.formTeachers[classID] = newTeacherID
		}
	}
	return nil
}

type mockAssignmentStore struct {
	teachers map[string]string // assignment id -> teacher id
	err      error
}

func (m *mockAssignmentStore) ReassignTeacher(ctx context.Context, oldTeacherID, newTeacherID string) error {
	if m.err != nil {
		return m.err
	}
	for id, teacherID := range m.teachers {
		if teacherID == oldTeacherID {
			m.teachers[id] = newTeacherID
		}
	}
	return nil
}

func legacyProfile(id, username string, role models.Role) *models.Profile {
	password := "registry-password"
	return &models.Profile{
		ID:             id,
		Username:       username,
		FullName:       "Seeded " + username,
		Role:           role,
		LegacyPassword: &password,
	}
}

func newReconcileFixture(profiles *mockProfileStore) (*ReconcileService, *mockStudentStore, *mockClassStore, *mockAssignmentStore) {
	students := &mockStudentStore{profileIDs: make(map[string]*string)}
	classes := &mockClassStore{formTeachers: make(map[string]string)}
	assignments := &mockAssignmentStore{teachers: make(map[string]string)}
	svc := NewReconcileService(profiles, students, classes, assignments, nil)
	return svc, students, classes, assignments
}

func TestUsernameFormsCoversBothSeparators(t *testing.T) {
	forms := usernameForms("PPIS_2024_001")
	assert.Contains(t, forms, "ppis_2024_001")
	assert.Contains(t, forms, "ppis/2024/001")

	forms = usernameForms("ppis/2024/001")
	assert.Contains(t, forms, "ppis/2024/001")
	assert.Contains(t, forms, "ppis_2024_001")

	// Plain handles stay as a single form.
	assert.Equal(t, []string{"teacher1"}, usernameForms("teacher1"))
}

func TestResolveMergesSeededStudentProfile(t *testing.T) {
	profiles := newMockProfileStore(legacyProfile("L1", "ppis/2024/001", models.RoleStudent))
	svc, students, _, _ := newReconcileFixture(profiles)
	legacyID := "L1"
	students.profileIDs["S1"] = &legacyID

	merged, err := svc.Resolve(context.Background(), "A1", "ppis_2024_001@school.edu")
	require.NoError(t, err)
	require.NotNil(t, merged)

	assert.Equal(t, "A1", merged.ID)
	assert.Equal(t, "ppis/2024/001", merged.Username)
	assert.Equal(t, models.RoleStudent, merged.Role)
	assert.Nil(t, merged.LegacyPassword)

	// The student row now points at the new identity and the legacy row is gone.
	require.NotNil(t, students.profileIDs["S1"])
	assert.Equal(t, "A1", *students.profileIDs["S1"])
	_, findErr := profiles.FindByID(context.Background(), "L1")
	assert.ErrorIs(t, findErr, sql.ErrNoRows)
}

func TestResolveIsIdempotent(t *testing.T) {
	profiles := newMockProfileStore(legacyProfile("L1", "ppis/2024/001", models.RoleStudent))
	svc, _, _, _ := newReconcileFixture(profiles)

	first, err := svc.Resolve(context.Background(), "A1", "ppis_2024_001@school.edu")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.Resolve(context.Background(), "A1", "ppis_2024_001@school.edu")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Username, second.Username)
}

func TestResolveNoRegistryRowReturnsNil(t *testing.T) {
	profiles := newMockProfileStore()
	svc, _, _, _ := newReconcileFixture(profiles)

	merged, err := svc.Resolve(context.Background(), "A1", "someone@school.edu")
	require.NoError(t, err)
	assert.Nil(t, merged)
}

func TestResolveRePointsTeacherReferences(t *testing.T) {
	profiles := newMockProfileStore(legacyProfile("T-legacy", "teacher_a", models.RoleFormTeacher))
	svc, _, classes, assignments := newReconcileFixture(profiles)
	classes.formTeachers["jss1a"] = "T-legacy"
	assignments.teachers["as1"] = "T-legacy"

	merged, err := svc.Resolve(context.Background(), "T-new", "teacher_a@school.edu")
	require.NoError(t, err)
	require.NotNil(t, merged)

	assert.Equal(t, "T-new", classes.formTeachers["jss1a"])
	assert.Equal(t, "T-new", assignments.teachers["as1"])
}

func TestResolveToleratesRePointFailure(t *testing.T) {
	profiles := newMockProfileStore(legacyProfile("L1", "ppis/2024/001", models.RoleStudent))
	svc, students, _, assignments := newReconcileFixture(profiles)
	legacyID := "L1"
	students.profileIDs["S1"] = &legacyID
	assignments.err = errors.New("assignments table locked")

	merged, err := svc.Resolve(context.Background(), "A1", "ppis_2024_001@school.edu")
	require.NoError(t, err)
	require.NotNil(t, merged)

	// The failed step did not block the rest of the merge.
	assert.Equal(t, "A1", *students.profileIDs["S1"])
	assert.Equal(t, "A1", merged.ID)
}

func TestResolveKeepsLegacyRowWhenUpsertFails(t *testing.T) {
	profiles := newMockProfileStore(legacyProfile("L1", "ppis/2024/001", models.RoleStudent))
	profiles.upsertErr = errors.New("connection reset")
	svc, _, _, _ := newReconcileFixture(profiles)

	merged, err := svc.Resolve(context.Background(), "A1", "ppis_2024_001@school.edu")
	require.Error(t, err)
	assert.Nil(t, merged)

	// Nothing was lost: the legacy row survives for the next attempt.
	legacy, findErr := profiles.FindByID(context.Background(), "L1")
	require.NoError(t, findErr)
	assert.Equal(t, "ppis/2024/001", legacy.Username)
}

func TestActivateMigratesLegacyCredentials(t *testing.T) {
	profiles := newMockProfileStore(legacyProfile("L1", "ppis/2024/001", models.RoleStudent))
	svc, _, _, _ := newReconcileFixture(profiles)

	merged, err := svc.Activate(context.Background(), "ppis_2024_001", "registry-password")
	require.NoError(t, err)
	require.NotNil(t, merged)

	assert.NotEqual(t, "L1", merged.ID)
	assert.Equal(t, "ppis/2024/001", merged.Username)
	assert.Nil(t, merged.LegacyPassword)
	require.NotNil(t, merged.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*merged.PasswordHash), []byte("registry-password")))

	_, findErr := profiles.FindByID(context.Background(), "L1")
	assert.ErrorIs(t, findErr, sql.ErrNoRows)
}

func TestActivateUnknownUsername(t *testing.T) {
	profiles := newMockProfileStore()
	svc, _, _, _ := newReconcileFixture(profiles)

	_, err := svc.Activate(context.Background(), "nobody", "whatever")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrRegistryNotFound.Code, appErr.Code)
}

func TestActivateWrongPassword(t *testing.T) {
	profiles := newMockProfileStore(legacyProfile("L1", "ppis/2024/001", models.RoleStudent))
	svc, _, _, _ := newReconcileFixture(profiles)

	_, err := svc.Activate(context.Background(), "ppis_2024_001", "wrong")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestActivateRollsBackRenameOnFailure(t *testing.T) {
	profiles := newMockProfileStore(legacyProfile("L1", "ppis/2024/001", models.RoleStudent))
	profiles.upsertErr = errors.New("insert rejected")
	svc, _, _, _ := newReconcileFixture(profiles)

	_, err := svc.Activate(context.Background(), "ppis_2024_001", "registry-password")
	require.Error(t, err)

	// The legacy row is back under its original username.
	legacy, findErr := profiles.FindByID(context.Background(), "L1")
	require.NoError(t, findErr)
	assert.Equal(t, "ppis/2024/001", legacy.Username)
}
