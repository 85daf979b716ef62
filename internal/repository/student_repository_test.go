package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppisng/ppis-api/internal/models"
)

func TestStudentFindByAdmissionNumberIsCaseInsensitive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "gender", "class_id", "admission_number",
		"profile_id", "parent_name", "parent_phone", "parent_email", "created_at", "updated_at", "class_name"}).
		AddRow("s1", "Ada", "Obi", "female", "jss1a", "ppis/2024/001", nil, "", "", "", now, now, "JSS 1A")

	mock.ExpectQuery("LOWER\\(s.admission_number\\) = \\$1").
		WithArgs("ppis/2024/001").
		WillReturnRows(rows)

	student, err := repo.FindByAdmissionNumber(context.Background(), "PPIS/2024/001")
	require.NoError(t, err)
	assert.Equal(t, "s1", student.ID)
	require.NotNil(t, student.ClassName)
	assert.Equal(t, "JSS 1A", *student.ClassName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentListByClassHasNoLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "gender", "class_id", "admission_number",
		"profile_id", "parent_name", "parent_phone", "parent_email", "created_at", "updated_at", "class_name"})
	for i := 0; i < 130; i++ {
		id := fmt.Sprintf("s%03d", i)
		rows.AddRow(id, "Student", id, "female", "jss1a", "ppis/2024/"+id, nil, "", "", "", now, now, "JSS 1A")
	}

	mock.ExpectQuery("WHERE s.class_id = \\$1\\s+ORDER BY s.last_name ASC, s.first_name ASC$").
		WithArgs("jss1a").
		WillReturnRows(rows)

	students, err := repo.ListByClass(context.Background(), "jss1a")
	require.NoError(t, err)
	assert.Len(t, students, 130)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentUpsertNormalisesAdmissionNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{FirstName: "Ada", LastName: "Obi", Gender: "female", AdmissionNumber: "PPIS/2024/001"}
	require.NoError(t, repo.Upsert(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, "ppis/2024/001", student.AdmissionNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentReassignProfile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET profile_id = $1, updated_at = $2 WHERE profile_id = $3")).
		WithArgs("A1", sqlmock.AnyArg(), "L1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReassignProfile(context.Background(), "L1", "A1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentAdoptLegacyID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET profile_id = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("A1", sqlmock.AnyArg(), "L1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AdoptLegacyID(context.Background(), "L1", "A1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentUpdateClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET class_id = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("jss2a", sqlmock.AnyArg(), "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateClass(context.Background(), "s1", "jss2a"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
