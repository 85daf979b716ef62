package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppisng/ppis-api/internal/models"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
)

type mockScoreRepo struct {
	upserted   []models.Score
	bulkErr    error
	approved   []bool
	published  []bool
	deletedIDs []string
}

func (m *mockScoreRepo) List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error) {
	return m.upserted, nil
}

func (m *mockScoreRepo) Upsert(ctx context.Context, score *models.Score) error {
	m.upserted = append(m.upserted, *score)
	return nil
}

func (m *mockScoreRepo) BulkUpsert(ctx context.Context, scores []models.Score) error {
	if m.bulkErr != nil {
		return m.bulkErr
	}
	m.upserted = append(m.upserted, scores...)
	return nil
}

func (m *mockScoreRepo) SetApproved(ctx context.Context, classID string, term int, session string, approved bool) error {
	m.approved = append(m.approved, approved)
	return nil
}

func (m *mockScoreRepo) SetPublished(ctx context.Context, classID string, term int, session string, published bool) error {
	m.published = append(m.published, published)
	return nil
}

func (m *mockScoreRepo) Delete(ctx context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func validScoreRequest() UpsertScoreRequest {
	return UpsertScoreRequest{
		StudentID: "s1",
		SubjectID: "math",
		ClassID:   "jss1a",
		FirstCA:   18,
		SecondCA:  16,
		Exam:      52,
		Term:      1,
		Session:   "2024/2025",
	}
}

func TestUpsertScoreValidatesBounds(t *testing.T) {
	repo := &mockScoreRepo{}
	svc := NewScoreService(repo, nil, nil, nil)

	score, err := svc.Upsert(context.Background(), validScoreRequest())
	require.NoError(t, err)
	assert.Equal(t, 86.0, score.Total())

	overCA := validScoreRequest()
	overCA.FirstCA = 21
	_, err = svc.Upsert(context.Background(), overCA)
	assert.Error(t, err)

	overExam := validScoreRequest()
	overExam.Exam = 61
	_, err = svc.Upsert(context.Background(), overExam)
	assert.Error(t, err)

	badTerm := validScoreRequest()
	badTerm.Term = 4
	_, err = svc.Upsert(context.Background(), badTerm)
	assert.Error(t, err)

	negative := validScoreRequest()
	negative.SecondCA = -1
	_, err = svc.Upsert(context.Background(), negative)
	assert.Error(t, err)

	// Only the valid entry landed.
	assert.Len(t, repo.upserted, 1)
}

func TestBulkUpsertIsAllOrNothing(t *testing.T) {
	repo := &mockScoreRepo{}
	svc := NewScoreService(repo, nil, nil, nil)

	second := validScoreRequest()
	second.StudentID = "s2"
	saved, err := svc.BulkUpsert(context.Background(), BulkScoresRequest{Items: []UpsertScoreRequest{validScoreRequest(), second}})
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.Len(t, repo.upserted, 2)

	// One invalid row rejects the whole sheet before it reaches the store.
	bad := validScoreRequest()
	bad.Exam = 200
	_, err = svc.BulkUpsert(context.Background(), BulkScoresRequest{Items: []UpsertScoreRequest{validScoreRequest(), bad}})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Len(t, repo.upserted, 2)
}

func TestBulkUpsertPropagatesStoreFailure(t *testing.T) {
	repo := &mockScoreRepo{bulkErr: errors.New("deadlock detected")}
	svc := NewScoreService(repo, nil, nil, nil)

	_, err := svc.BulkUpsert(context.Background(), BulkScoresRequest{Items: []UpsertScoreRequest{validScoreRequest()}})
	require.Error(t, err)
	assert.Empty(t, repo.upserted)
}

func TestApproveAndPublishScope(t *testing.T) {
	repo := &mockScoreRepo{}
	svc := NewScoreService(repo, nil, nil, nil)
	scope := ScoreScopeRequest{ClassID: "jss1a", Term: 1, Session: "2024/2025"}

	require.NoError(t, svc.Approve(context.Background(), scope, true))
	require.NoError(t, svc.Publish(context.Background(), scope, true))
	require.NoError(t, svc.Publish(context.Background(), scope, false))

	assert.Equal(t, []bool{true}, repo.approved)
	assert.Equal(t, []bool{true, false}, repo.published)

	// An incomplete scope never reaches the store.
	err := svc.Approve(context.Background(), ScoreScopeRequest{ClassID: "jss1a"}, true)
	assert.Error(t, err)
	assert.Len(t, repo.approved, 1)
}
