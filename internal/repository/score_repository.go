package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ppisng/ppis-api/internal/models"
)

// ScoreRepository handles score persistence.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

const scoreColumns = `id, student_id, subject_id, class_id, first_ca, second_ca, exam, term, session,
        is_published, is_approved_by_form_teacher, comment, created_at, updated_at`

// List returns scores matching the filter.
func (r *ScoreRepository) List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error) {
	query := fmt.Sprintf("SELECT %s FROM scores WHERE 1=1", scoreColumns)
	var args []interface{}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.SubjectID != "" {
		query += fmt.Sprintf(" AND subject_id = $%d", len(args)+1)
		args = append(args, filter.SubjectID)
	}
	if filter.ClassID != "" {
		query += fmt.Sprintf(" AND class_id = $%d", len(args)+1)
		args = append(args, filter.ClassID)
	}
	if filter.Term != 0 {
		query += fmt.Sprintf(" AND term = $%d", len(args)+1)
		args = append(args, filter.Term)
	}
	if filter.Session != "" {
		query += fmt.Sprintf(" AND session = $%d", len(args)+1)
		args = append(args, filter.Session)
	}
	if filter.Published != nil {
		query += fmt.Sprintf(" AND is_published = $%d", len(args)+1)
		args = append(args, *filter.Published)
	}
	query += " ORDER BY updated_at DESC"

	var scores []models.Score
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

// FindByID fetches a score row.
func (r *ScoreRepository) FindByID(ctx context.Context, id string) (*models.Score, error) {
	query := fmt.Sprintf("SELECT %s FROM scores WHERE id = $1", scoreColumns)
	var score models.Score
	if err := r.db.GetContext(ctx, &score, query, id); err != nil {
		return nil, err
	}
	return &score, nil
}

// Upsert inserts or updates a score keyed by (student, subject, term, session).
func (r *ScoreRepository) Upsert(ctx context.Context, score *models.Score) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if score.CreatedAt.IsZero() {
		score.CreatedAt = now
	}
	score.UpdatedAt = now
	const query = `INSERT INTO scores (id, student_id, subject_id, class_id, first_ca, second_ca, exam,
            term, session, is_published, is_approved_by_form_teacher, comment, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :class_id, :first_ca, :second_ca, :exam,
            :term, :session, :is_published, :is_approved_by_form_teacher, :comment, :created_at, :updated_at)
        ON CONFLICT (student_id, subject_id, term, session)
        DO UPDATE SET class_id = EXCLUDED.class_id, first_ca = EXCLUDED.first_ca,
            second_ca = EXCLUDED.second_ca, exam = EXCLUDED.exam, comment = EXCLUDED.comment,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, score); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// BulkUpsert inserts or updates multiple scores in a transaction.
func (r *ScoreRepository) BulkUpsert(ctx context.Context, scores []models.Score) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for i := range scores {
		if scores[i].ID == "" {
			scores[i].ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if scores[i].CreatedAt.IsZero() {
			scores[i].CreatedAt = now
		}
		scores[i].UpdatedAt = now
		const query = `INSERT INTO scores (id, student_id, subject_id, class_id, first_ca, second_ca, exam,
                term, session, is_published, is_approved_by_form_teacher, comment, created_at, updated_at)
            VALUES (:id, :student_id, :subject_id, :class_id, :first_ca, :second_ca, :exam,
                :term, :session, :is_published, :is_approved_by_form_teacher, :comment, :created_at, :updated_at)
            ON CONFLICT (student_id, subject_id, term, session)
            DO UPDATE SET class_id = EXCLUDED.class_id, first_ca = EXCLUDED.first_ca,
                second_ca = EXCLUDED.second_ca, exam = EXCLUDED.exam, comment = EXCLUDED.comment,
                updated_at = EXCLUDED.updated_at`
		if _, err := tx.NamedExecContext(ctx, query, scores[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk upsert score: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scores: %w", err)
	}
	return nil
}

// SetApproved flips form-teacher approval for every score in the scope.
func (r *ScoreRepository) SetApproved(ctx context.Context, classID string, term int, session string, approved bool) error {
	const query = `UPDATE scores SET is_approved_by_form_teacher = $1, updated_at = $2
        WHERE class_id = $3 AND term = $4 AND session = $5`
	if _, err := r.db.ExecContext(ctx, query, approved, time.Now().UTC(), classID, term, session); err != nil {
		return fmt.Errorf("approve scores: %w", err)
	}
	return nil
}

// SetPublished flips publication for every score in the scope.
func (r *ScoreRepository) SetPublished(ctx context.Context, classID string, term int, session string, published bool) error {
	const query = `UPDATE scores SET is_published = $1, updated_at = $2
        WHERE class_id = $3 AND term = $4 AND session = $5`
	if _, err := r.db.ExecContext(ctx, query, published, time.Now().UTC(), classID, term, session); err != nil {
		return fmt.Errorf("publish scores: %w", err)
	}
	return nil
}

// DeleteBySubject removes scores belonging to a subject. Used when a subject
// is removed from the curriculum.
func (r *ScoreRepository) DeleteBySubject(ctx context.Context, subjectID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM scores WHERE subject_id = $1", subjectID); err != nil {
		return fmt.Errorf("delete scores by subject: %w", err)
	}
	return nil
}

// Count returns the total number of score rows.
func (r *ScoreRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM scores"); err != nil {
		return 0, fmt.Errorf("count scores: %w", err)
	}
	return total, nil
}

// Delete removes a score row.
func (r *ScoreRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM scores WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete score: %w", err)
	}
	return nil
}
