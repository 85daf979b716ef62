package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ppisng/ppis-api/internal/models"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
)

type resultScoreReader interface {
	List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error)
}

type resultStudentReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.StudentDetail, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type resultSubjectReader interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Subject, error)
}

// GradeBand maps a subject total floor to a report-card letter and remark.
// The thresholds are a contract: report cards reproduce these letters.
type GradeBand struct {
	Min    float64
	Letter string
	Remark string
}

// gradeBands is scanned in declared order, highest floor first. The bands are
// contiguous over the floors so fractional totals (CA marks allow halves)
// land in the band whose floor they clear.
var gradeBands = []GradeBand{
	{70, "A", "Excellent"},
	{60, "B", "Very Good"},
	{50, "C", "Good"},
	{45, "D", "Pass"},
	{40, "E", "Poor"},
	{0, "F", "Fail"},
}

// GradeFor returns the letter and remark for a subject total out of 100.
// Totals are bounded by construction; anything outside [0, 100] arrives only
// through unvalidated legacy rows and grades F.
func GradeFor(total float64) (string, string) {
	if total >= 0 && total <= 100 {
		for _, band := range gradeBands {
			if total >= band.Min {
				return band.Letter, band.Remark
			}
		}
	}
	return "F", "Fail"
}

// ResultsService computes per-student aggregates and class rankings.
type ResultsService struct {
	scores   resultScoreReader
	students resultStudentReader
	subjects resultSubjectReader
	cache    *CacheService
	logger   *zap.Logger
}

// NewResultsService constructs a ResultsService.
func NewResultsService(scores resultScoreReader, students resultStudentReader, subjects resultSubjectReader, cache *CacheService, logger *zap.Logger) *ResultsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultsService{scores: scores, students: students, subjects: subjects, cache: cache, logger: logger}
}

// ComputePositions ranks the given students by their aggregate total over the
// (term, session) scope. The aggregate is the plain sum of first_ca +
// second_ca + exam across every matching score row, so a student offering
// more subjects aggregates more rows. Ranks are dense 1..N with ties broken
// by student id ascending; tied totals still receive distinct consecutive
// ranks. Every input student appears in the mapping, zero-score students
// included.
func ComputePositions(students []models.StudentDetail, scores []models.Score, term int, session string) map[string]int {
	totals := make(map[string]float64, len(students))
	for _, student := range students {
		totals[student.ID] = 0
	}
	for _, score := range scores {
		if score.Term != term || score.Session != session {
			continue
		}
		if _, ok := totals[score.StudentID]; !ok {
			continue
		}
		totals[score.StudentID] += score.Total()
	}

	ranked := make([]string, 0, len(totals))
	for id := range totals {
		ranked = append(ranked, id)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if totals[ranked[i]] != totals[ranked[j]] {
			return totals[ranked[i]] > totals[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	positions := make(map[string]int, len(ranked))
	for i, id := range ranked {
		positions[id] = i + 1
	}
	return positions
}

// StudentResult returns the per-student aggregate view: total, average over
// the number of score rows (0 when there are none), and the class-scoped
// position.
func (s *ResultsService) StudentResult(ctx context.Context, studentID string, term int, session string) (*models.StudentResult, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	classID := ""
	if student.ClassID != nil {
		classID = *student.ClassID
	}

	roster, scores, err := s.classScope(ctx, classID, term, session)
	if err != nil {
		return nil, err
	}
	if classID == "" {
		// Unassigned students rank alone.
		roster = []models.StudentDetail{*student}
	}
	positions := ComputePositions(roster, scores, term, session)

	var total float64
	var count int
	for _, score := range scores {
		if score.StudentID != studentID || score.Term != term || score.Session != session {
			continue
		}
		total += score.Total()
		count++
	}

	average := 0.0
	if count > 0 {
		average = total / float64(count)
	}

	return &models.StudentResult{
		StudentID: studentID,
		Total:     total,
		Average:   average,
		Count:     count,
		Position:  positions[studentID],
	}, nil
}

// StudentSheet returns the graded per-subject rows for one student's result,
// published scores only when publishedOnly is set.
func (s *ResultsService) StudentSheet(ctx context.Context, studentID string, term int, session string, publishedOnly bool) ([]models.SubjectResult, error) {
	filter := models.ScoreFilter{StudentID: studentID, Term: term, Session: session}
	if publishedOnly {
		published := true
		filter.Published = &published
	}
	scores, err := s.scores.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}

	subjectIDs := make([]string, 0, len(scores))
	for _, score := range scores {
		subjectIDs = append(subjectIDs, score.SubjectID)
	}
	subjects, err := s.subjects.FindByIDs(ctx, subjectIDs)
	if err != nil {
		s.logger.Warn("failed to resolve subject names", zap.Error(err))
		subjects = map[string]models.Subject{}
	}

	rows := make([]models.SubjectResult, 0, len(scores))
	for _, score := range scores {
		rows = append(rows, subjectRow(score, subjects))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SubjectName < rows[j].SubjectName })
	return rows, nil
}

// Broadsheet assembles the full class result table for a (class, term,
// session) scope, cached when a cache service is wired.
func (s *ResultsService) Broadsheet(ctx context.Context, classID string, term int, session string) ([]models.BroadsheetRow, error) {
	key := fmt.Sprintf("results:broadsheet:%s:%d:%s", classID, term, session)
	if s.cache.Enabled() {
		var cached []models.BroadsheetRow
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return cached, nil
		}
	}

	roster, scores, err := s.classScope(ctx, classID, term, session)
	if err != nil {
		return nil, err
	}
	positions := ComputePositions(roster, scores, term, session)

	subjectIDs := make([]string, 0, len(scores))
	for _, score := range scores {
		subjectIDs = append(subjectIDs, score.SubjectID)
	}
	subjects, err := s.subjects.FindByIDs(ctx, subjectIDs)
	if err != nil {
		s.logger.Warn("failed to resolve subject names", zap.Error(err))
		subjects = map[string]models.Subject{}
	}

	byStudent := make(map[string][]models.Score, len(roster))
	for _, score := range scores {
		byStudent[score.StudentID] = append(byStudent[score.StudentID], score)
	}

	rows := make([]models.BroadsheetRow, 0, len(roster))
	for _, student := range roster {
		row := models.BroadsheetRow{
			StudentID:       student.ID,
			StudentName:     student.FirstName + " " + student.LastName,
			AdmissionNumber: student.AdmissionNumber,
			Position:        positions[student.ID],
		}
		for _, score := range byStudent[student.ID] {
			row.Subjects = append(row.Subjects, subjectRow(score, subjects))
			row.Total += score.Total()
		}
		if len(row.Subjects) > 0 {
			row.Average = row.Total / float64(len(row.Subjects))
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, key, rows, s.cache.ResultsTTL())
	}
	return rows, nil
}

func (s *ResultsService) classScope(ctx context.Context, classID string, term int, session string) ([]models.StudentDetail, []models.Score, error) {
	var roster []models.StudentDetail
	if classID != "" {
		var err error
		// Rankings need the whole class, not a page of it.
		roster, err = s.students.ListByClass(ctx, classID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
		}
	}
	scores, err := s.scores.List(ctx, models.ScoreFilter{ClassID: classID, Term: term, Session: session})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class scores")
	}
	return roster, scores, nil
}

func subjectRow(score models.Score, subjects map[string]models.Subject) models.SubjectResult {
	total := score.Total()
	letter, remark := GradeFor(total)
	row := models.SubjectResult{
		SubjectID: score.SubjectID,
		FirstCA:   score.FirstCA,
		SecondCA:  score.SecondCA,
		Exam:      score.Exam,
		Total:     total,
		Grade:     letter,
		Remark:    remark,
		Comment:   score.Comment,
	}
	if subject, ok := subjects[score.SubjectID]; ok {
		row.SubjectName = subject.Name
	}
	return row
}
