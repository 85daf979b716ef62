package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppisng/ppis-api/internal/models"
)

func scoreRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "subject_id", "class_id", "first_ca", "second_ca", "exam",
		"term", "session", "is_published", "is_approved_by_form_teacher", "comment", "created_at", "updated_at"}).
		AddRow("sc1", "s1", "math", "jss1a", 18.0, 16.0, 52.0, 1, "2024/2025", false, false, "", now, now)
}

func TestScoreListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AND class_id = $1 AND term = $2 AND session = $3 AND is_published = $4")).
		WithArgs("jss1a", 1, "2024/2025", true).
		WillReturnRows(scoreRows(time.Now()))

	published := true
	scores, err := repo.List(context.Background(), models.ScoreFilter{
		ClassID:   "jss1a",
		Term:      1,
		Session:   "2024/2025",
		Published: &published,
	})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 86.0, scores[0].Total())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectExec("INSERT INTO scores").WillReturnResult(sqlmock.NewResult(1, 1))

	score := &models.Score{StudentID: "s1", SubjectID: "math", ClassID: "jss1a", FirstCA: 18, SecondCA: 16, Exam: 52, Term: 1, Session: "2024/2025"}
	err := repo.Upsert(context.Background(), score)
	require.NoError(t, err)
	assert.NotEmpty(t, score.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreBulkUpsertCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scores").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO scores").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	scores := []models.Score{
		{StudentID: "s1", SubjectID: "math", ClassID: "jss1a", Term: 1, Session: "2024/2025"},
		{StudentID: "s2", SubjectID: "math", ClassID: "jss1a", Term: 1, Session: "2024/2025"},
	}
	require.NoError(t, repo.BulkUpsert(context.Background(), scores))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreBulkUpsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scores").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO scores").WillReturnError(errors.New("constraint violated"))
	mock.ExpectRollback()

	scores := []models.Score{
		{StudentID: "s1", SubjectID: "math", ClassID: "jss1a", Term: 1, Session: "2024/2025"},
		{StudentID: "s2", SubjectID: "math", ClassID: "jss1a", Term: 1, Session: "2024/2025"},
	}
	err := repo.BulkUpsert(context.Background(), scores)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreSetPublishedScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectExec("UPDATE scores SET is_published").
		WithArgs(true, sqlmock.AnyArg(), "jss1a", 1, "2024/2025").
		WillReturnResult(sqlmock.NewResult(0, 30))

	require.NoError(t, repo.SetPublished(context.Background(), "jss1a", 1, "2024/2025", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreSetApprovedScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectExec("UPDATE scores SET is_approved_by_form_teacher").
		WithArgs(true, sqlmock.AnyArg(), "jss1a", 1, "2024/2025").
		WillReturnResult(sqlmock.NewResult(0, 30))

	require.NoError(t, repo.SetApproved(context.Background(), "jss1a", 1, "2024/2025", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreDeleteBySubject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scores WHERE subject_id = $1")).
		WithArgs("math").
		WillReturnResult(sqlmock.NewResult(0, 12))

	require.NoError(t, repo.DeleteBySubject(context.Background(), "math"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
