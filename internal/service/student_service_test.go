package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppisng/ppis-api/internal/models"
)

type mockStudentRepo struct {
	mu      sync.Mutex
	moved   map[string]string
	failFor map[string]error
	saved   []models.Student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{moved: make(map[string]string), failFor: make(map[string]error)}
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	return nil, errors.New("not implemented")
}

func (m *mockStudentRepo) FindByAdmissionNumber(ctx context.Context, admissionNumber string) (*models.StudentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.saved {
		if s.AdmissionNumber == strings.ToLower(admissionNumber) {
			return &models.StudentDetail{Student: s}, nil
		}
	}
	return nil, sql.ErrNoRows
}

// Upsert mirrors the store contract: ids are minted and admission numbers
// normalised on write.
func (m *mockStudentRepo) Upsert(ctx context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.AdmissionNumber = strings.ToLower(student.AdmissionNumber)
	m.saved = append(m.saved, *student)
	return nil
}

func (m *mockStudentRepo) UpdateClass(ctx context.Context, studentID, classID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[studentID]; ok {
		return err
	}
	m.moved[studentID] = classID
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	return nil
}

func TestPromoteMovesEveryStudent(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(repo, nil, nil)

	err := svc.Promote(context.Background(), PromoteStudentsRequest{
		StudentIDs: []string{"s1", "s2", "s3"},
		ClassID:    "jss2a",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"s1": "jss2a", "s2": "jss2a", "s3": "jss2a"}, repo.moved)
}

func TestPromoteReportsFailureButAttemptsAll(t *testing.T) {
	repo := newMockStudentRepo()
	repo.failFor["s2"] = errors.New("student locked")
	svc := NewStudentService(repo, nil, nil)

	err := svc.Promote(context.Background(), PromoteStudentsRequest{
		StudentIDs: []string{"s1", "s2", "s3"},
		ClassID:    "jss2a",
	})
	require.Error(t, err)

	// The other moves still ran; only the failed one is missing.
	assert.Equal(t, "jss2a", repo.moved["s1"])
	assert.Equal(t, "jss2a", repo.moved["s3"])
	_, moved := repo.moved["s2"]
	assert.False(t, moved)
}

func TestPromoteRejectsEmptyBatch(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(repo, nil, nil)

	err := svc.Promote(context.Background(), PromoteStudentsRequest{ClassID: "jss2a"})
	assert.Error(t, err)
	assert.Empty(t, repo.moved)
}

func TestSaveStudentRejectsDuplicateAdmissionNumber(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(repo, nil, nil)

	first, err := svc.Save(context.Background(), SaveStudentRequest{
		FirstName:       "Ada",
		LastName:        "Obi",
		Gender:          "female",
		AdmissionNumber: "PPIS/2024/001",
	})
	require.NoError(t, err)
	assert.Equal(t, "ppis/2024/001", first.AdmissionNumber)
	assert.NotEmpty(t, first.ID)

	// A second student under the same number is a conflict.
	_, err = svc.Save(context.Background(), SaveStudentRequest{
		FirstName:       "Bola",
		LastName:        "Ade",
		Gender:          "male",
		AdmissionNumber: "ppis/2024/001",
	})
	assert.Error(t, err)

	// Updating the existing record by id is not.
	updated, err := svc.Save(context.Background(), SaveStudentRequest{
		ID:              first.ID,
		FirstName:       "Ada",
		LastName:        "Obi-Nwosu",
		Gender:          "female",
		AdmissionNumber: "ppis/2024/001",
	})
	require.NoError(t, err)
	assert.Equal(t, "Obi-Nwosu", updated.LastName)
}
