package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppisng/ppis-api/internal/models"
)

type mockScoreReader struct {
	scores []models.Score
}

func (m *mockScoreReader) List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error) {
	var result []models.Score
	for _, s := range m.scores {
		if filter.StudentID != "" && filter.StudentID != s.StudentID {
			continue
		}
		if filter.ClassID != "" && filter.ClassID != s.ClassID {
			continue
		}
		if filter.Term != 0 && filter.Term != s.Term {
			continue
		}
		if filter.Session != "" && filter.Session != s.Session {
			continue
		}
		if filter.Published != nil && *filter.Published != s.IsPublished {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

type mockStudentReader struct {
	students []models.StudentDetail
}

func (m *mockStudentReader) ListByClass(ctx context.Context, classID string) ([]models.StudentDetail, error) {
	var result []models.StudentDetail
	for _, s := range m.students {
		if s.ClassID == nil || *s.ClassID != classID {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	for _, s := range m.students {
		if s.ID == id {
			found := s
			return &found, nil
		}
	}
	return nil, fmt.Errorf("student %s: %w", id, sql.ErrNoRows)
}

type mockSubjectReader struct {
	subjects map[string]models.Subject
}

func (m *mockSubjectReader) FindByIDs(ctx context.Context, ids []string) (map[string]models.Subject, error) {
	result := make(map[string]models.Subject)
	for _, id := range ids {
		if subject, ok := m.subjects[id]; ok {
			result[id] = subject
		}
	}
	return result, nil
}

func classStudent(id, classID string) models.StudentDetail {
	return models.StudentDetail{
		Student: models.Student{
			ID:              id,
			FirstName:       "Student",
			LastName:        id,
			ClassID:         &classID,
			AdmissionNumber: "ppis/2024/" + id,
		},
	}
}

func termScore(studentID string, firstCA, secondCA, exam float64) models.Score {
	return models.Score{
		ID:        studentID + "-score",
		StudentID: studentID,
		SubjectID: "math",
		ClassID:   "jss1a",
		FirstCA:   firstCA,
		SecondCA:  secondCA,
		Exam:      exam,
		Term:      1,
		Session:   "2024/2025",
	}
}

func TestComputePositionsDenseRanksWithDeterministicTies(t *testing.T) {
	students := []models.StudentDetail{
		classStudent("s1", "jss1a"),
		classStudent("s2", "jss1a"),
		classStudent("s3", "jss1a"),
	}
	scores := []models.Score{
		termScore("s1", 20, 20, 60),  // 100
		termScore("s3", 20, 20, 60),  // 100, tied with s1
		termScore("s2", 10, 10, 30),  // 50
	}

	positions := ComputePositions(students, scores, 1, "2024/2025")

	// Ties take distinct consecutive ranks, lower id first.
	assert.Equal(t, 1, positions["s1"])
	assert.Equal(t, 2, positions["s3"])
	assert.Equal(t, 3, positions["s2"])
}

func TestComputePositionsIsAPermutation(t *testing.T) {
	var students []models.StudentDetail
	var scores []models.Score
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("s%02d", i)
		students = append(students, classStudent(id, "jss1a"))
		scores = append(scores, termScore(id, float64(i), float64(i), float64(i*3)))
	}

	positions := ComputePositions(students, scores, 1, "2024/2025")

	require.Len(t, positions, len(students))
	seen := make(map[int]bool)
	for _, pos := range positions {
		assert.GreaterOrEqual(t, pos, 1)
		assert.LessOrEqual(t, pos, len(students))
		assert.False(t, seen[pos], "duplicate rank %d", pos)
		seen[pos] = true
	}
}

func TestComputePositionsHigherTotalNeverRanksWorse(t *testing.T) {
	students := []models.StudentDetail{
		classStudent("a", "jss1a"),
		classStudent("b", "jss1a"),
	}
	scores := []models.Score{
		termScore("a", 10, 10, 40), // 60
		termScore("b", 10, 10, 20), // 40
	}

	positions := ComputePositions(students, scores, 1, "2024/2025")
	assert.Less(t, positions["a"], positions["b"])
}

func TestComputePositionsIncludesZeroScoreStudents(t *testing.T) {
	students := []models.StudentDetail{
		classStudent("s1", "jss1a"),
		classStudent("s2", "jss1a"),
	}
	scores := []models.Score{termScore("s1", 15, 15, 50)}

	positions := ComputePositions(students, scores, 1, "2024/2025")

	require.Len(t, positions, 2)
	assert.Equal(t, 1, positions["s1"])
	assert.Equal(t, 2, positions["s2"])
}

func TestComputePositionsIgnoresOutOfScopeScores(t *testing.T) {
	students := []models.StudentDetail{
		classStudent("s1", "jss1a"),
		classStudent("s2", "jss1a"),
	}
	otherTerm := termScore("s2", 20, 20, 60)
	otherTerm.Term = 2
	otherSession := termScore("s2", 20, 20, 60)
	otherSession.Session = "2023/2024"
	scores := []models.Score{termScore("s1", 5, 5, 10), otherTerm, otherSession}

	positions := ComputePositions(students, scores, 1, "2024/2025")

	assert.Equal(t, 1, positions["s1"])
	assert.Equal(t, 2, positions["s2"])
}

func TestGradeForCoversEveryTotal(t *testing.T) {
	cases := []struct {
		total  float64
		letter string
		remark string
	}{
		{100, "A", "Excellent"},
		{70, "A", "Excellent"},
		{69, "B", "Very Good"},
		{60, "B", "Very Good"},
		{59, "C", "Good"},
		{50, "C", "Good"},
		{49, "D", "Pass"},
		{45, "D", "Pass"},
		{44, "E", "Poor"},
		{40, "E", "Poor"},
		{39, "F", "Fail"},
		{0, "F", "Fail"},
	}
	for _, tc := range cases {
		letter, remark := GradeFor(tc.total)
		assert.Equal(t, tc.letter, letter, "total %.0f", tc.total)
		assert.Equal(t, tc.remark, remark, "total %.0f", tc.total)
	}

	// Every integral total in range maps to some band.
	for total := 0; total <= 100; total++ {
		letter, _ := GradeFor(float64(total))
		assert.NotEmpty(t, letter, "total %d", total)
	}
}

func TestGradeForFractionalTotals(t *testing.T) {
	// CA marks allow halves, so totals land between the integral thresholds.
	cases := []struct {
		total  float64
		letter string
	}{
		{69.5, "B"},
		{59.5, "C"},
		{49.5, "D"},
		{44.5, "E"},
		{39.5, "F"},
		{99.5, "A"},
		{0.5, "F"},
	}
	for _, tc := range cases {
		letter, _ := GradeFor(tc.total)
		assert.Equal(t, tc.letter, letter, "total %.1f", tc.total)
	}

	// Half-mark steps across the whole range never fall to a gap: each total
	// grades at least as well as the integral total below it.
	for total := 0.0; total <= 99.5; total += 0.5 {
		letter, _ := GradeFor(total)
		floorLetter, _ := GradeFor(float64(int(total)))
		assert.LessOrEqual(t, letter, floorLetter, "total %.1f", total)
	}
}

func TestStudentResultAggregatesAndRanks(t *testing.T) {
	students := &mockStudentReader{students: []models.StudentDetail{
		classStudent("s1", "jss1a"),
		classStudent("s2", "jss1a"),
	}}
	extra := termScore("s1", 18, 17, 55)
	extra.ID = "s1-extra"
	extra.SubjectID = "english"
	scores := &mockScoreReader{scores: []models.Score{
		termScore("s1", 20, 15, 50), // 85
		extra,                       // 90
		termScore("s2", 10, 10, 30), // 50
	}}
	svc := NewResultsService(scores, students, &mockSubjectReader{}, nil, nil)

	result, err := svc.StudentResult(context.Background(), "s1", 1, "2024/2025")
	require.NoError(t, err)

	assert.Equal(t, 175.0, result.Total)
	assert.Equal(t, 87.5, result.Average)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 1, result.Position)
}

func TestStudentResultZeroScoresAverageIsZero(t *testing.T) {
	students := &mockStudentReader{students: []models.StudentDetail{
		classStudent("s1", "jss1a"),
	}}
	svc := NewResultsService(&mockScoreReader{}, students, &mockSubjectReader{}, nil, nil)

	result, err := svc.StudentResult(context.Background(), "s1", 1, "2024/2025")
	require.NoError(t, err)

	assert.Zero(t, result.Total)
	assert.Zero(t, result.Average)
	assert.Zero(t, result.Count)
	assert.Equal(t, 1, result.Position)
}

func TestStudentSheetFiltersToPublished(t *testing.T) {
	published := termScore("s1", 20, 20, 60)
	published.IsPublished = true
	draft := termScore("s1", 5, 5, 5)
	draft.ID = "s1-draft"
	draft.SubjectID = "english"
	scores := &mockScoreReader{scores: []models.Score{published, draft}}
	subjects := &mockSubjectReader{subjects: map[string]models.Subject{
		"math":    {ID: "math", Name: "Mathematics"},
		"english": {ID: "english", Name: "English Language"},
	}}
	svc := NewResultsService(scores, &mockStudentReader{}, subjects, nil, nil)

	sheet, err := svc.StudentSheet(context.Background(), "s1", 1, "2024/2025", true)
	require.NoError(t, err)
	require.Len(t, sheet, 1)
	assert.Equal(t, "Mathematics", sheet[0].SubjectName)
	assert.Equal(t, "A", sheet[0].Grade)

	sheet, err = svc.StudentSheet(context.Background(), "s1", 1, "2024/2025", false)
	require.NoError(t, err)
	assert.Len(t, sheet, 2)
}

func TestBroadsheetOrdersByPosition(t *testing.T) {
	students := &mockStudentReader{students: []models.StudentDetail{
		classStudent("s1", "jss1a"),
		classStudent("s2", "jss1a"),
		classStudent("s3", "jss1a"),
	}}
	scores := &mockScoreReader{scores: []models.Score{
		termScore("s1", 10, 10, 30), // 50
		termScore("s2", 20, 20, 60), // 100
		termScore("s3", 15, 15, 40), // 70
	}}
	svc := NewResultsService(scores, students, &mockSubjectReader{}, nil, nil)

	rows, err := svc.Broadsheet(context.Background(), "jss1a", 1, "2024/2025")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "s2", rows[0].StudentID)
	assert.Equal(t, "s3", rows[1].StudentID)
	assert.Equal(t, "s1", rows[2].StudentID)
	assert.Equal(t, 1, rows[0].Position)
	assert.Equal(t, 100.0, rows[0].Total)
	assert.Equal(t, 100.0, rows[0].Average)
}

func TestBroadsheetCoversClassesBeyondAPage(t *testing.T) {
	var roster []models.StudentDetail
	var scored []models.Score
	for i := 0; i < 130; i++ {
		id := fmt.Sprintf("s%03d", i)
		roster = append(roster, classStudent(id, "jss1a"))
		scored = append(scored, termScore(id, 10, 10, float64(i%60)))
	}
	students := &mockStudentReader{students: roster}
	scores := &mockScoreReader{scores: scored}
	svc := NewResultsService(scores, students, &mockSubjectReader{}, nil, nil)

	rows, err := svc.Broadsheet(context.Background(), "jss1a", 1, "2024/2025")
	require.NoError(t, err)
	require.Len(t, rows, len(roster))

	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		seen[row.StudentID] = true
	}
	for _, student := range roster {
		assert.True(t, seen[student.ID], "missing %s", student.ID)
	}
}
