package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ppisng/ppis-api/internal/models"
)

// AssignmentRepository manages teacher-subject-class mappings.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments matching the filter with joined names.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, error) {
	query := `SELECT a.id, a.teacher_id, a.subject_id, a.class_id, a.created_at,
        p.full_name AS teacher_name, s.name AS subject_name, c.name AS class_name
        FROM teacher_subject_assignments a
        LEFT JOIN profiles p ON p.id = a.teacher_id
        JOIN subjects s ON s.id = a.subject_id
        JOIN classes c ON c.id = a.class_id
        WHERE 1=1`
	var args []interface{}
	if filter.TeacherID != "" {
		query += fmt.Sprintf(" AND a.teacher_id = $%d", len(args)+1)
		args = append(args, filter.TeacherID)
	}
	if filter.SubjectID != "" {
		query += fmt.Sprintf(" AND a.subject_id = $%d", len(args)+1)
		args = append(args, filter.SubjectID)
	}
	if filter.ClassID != "" {
		query += fmt.Sprintf(" AND a.class_id = $%d", len(args)+1)
		args = append(args, filter.ClassID)
	}
	query += " ORDER BY a.created_at DESC"

	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// Create inserts a single assignment row.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.TeacherSubjectAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_subject_assignments (id, teacher_id, subject_id, class_id, created_at)
        VALUES (:id, :teacher_id, :subject_id, :class_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// ReassignTeacher re-points assignments owned by the old teacher id to the
// new one. Idempotent.
func (r *AssignmentRepository) ReassignTeacher(ctx context.Context, oldTeacherID, newTeacherID string) error {
	const query = "UPDATE teacher_subject_assignments SET teacher_id = $1 WHERE teacher_id = $2"
	if _, err := r.db.ExecContext(ctx, query, newTeacherID, oldTeacherID); err != nil {
		return fmt.Errorf("reassign assignments: %w", err)
	}
	return nil
}

// DeleteBySubject removes all assignments for a subject.
func (r *AssignmentRepository) DeleteBySubject(ctx context.Context, subjectID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM teacher_subject_assignments WHERE subject_id = $1", subjectID); err != nil {
		return fmt.Errorf("delete assignments by subject: %w", err)
	}
	return nil
}

// Delete removes an assignment row.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM teacher_subject_assignments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
