package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ppisng/ppis-api/internal/models"
)

// ClassRepository manages persistence for school classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes matching the filter with resolved form teacher names.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, error) {
	query := `SELECT c.id, c.name, c.level, c.arm, c.form_teacher_id, c.created_at, c.updated_at,
        p.full_name AS form_teacher_name
        FROM classes c LEFT JOIN profiles p ON p.id = c.form_teacher_id
        WHERE 1=1`
	var args []interface{}
	if filter.Level != "" {
		query += fmt.Sprintf(" AND c.level = $%d", len(args)+1)
		args = append(args, string(filter.Level))
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND LOWER(c.name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	query += " ORDER BY c.level, c.name"

	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID fetches a class by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	const query = `SELECT c.id, c.name, c.level, c.arm, c.form_teacher_id, c.created_at, c.updated_at,
        p.full_name AS form_teacher_name
        FROM classes c LEFT JOIN profiles p ON p.id = c.form_teacher_id
        WHERE c.id = $1`
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByFormTeacher returns the class a teacher is form teacher of, if any.
func (r *ClassRepository) FindByFormTeacher(ctx context.Context, teacherID string) (*models.ClassDetail, error) {
	const query = `SELECT c.id, c.name, c.level, c.arm, c.form_teacher_id, c.created_at, c.updated_at,
        p.full_name AS form_teacher_name
        FROM classes c LEFT JOIN profiles p ON p.id = c.form_teacher_id
        WHERE c.form_teacher_id = $1 LIMIT 1`
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, teacherID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Upsert inserts or updates a class.
func (r *ClassRepository) Upsert(ctx context.Context, class *models.SchoolClass) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, name, level, arm, form_teacher_id, created_at, updated_at)
        VALUES (:id, :name, :level, :arm, :form_teacher_id, :created_at, :updated_at)
        ON CONFLICT (id)
        DO UPDATE SET name = EXCLUDED.name, level = EXCLUDED.level, arm = EXCLUDED.arm,
            form_teacher_id = EXCLUDED.form_teacher_id, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("upsert class: %w", err)
	}
	return nil
}

// ReassignFormTeacher re-points classes owned by the old teacher id to the
// new one. Idempotent.
func (r *ClassRepository) ReassignFormTeacher(ctx context.Context, oldTeacherID, newTeacherID string) error {
	const query = "UPDATE classes SET form_teacher_id = $1, updated_at = $2 WHERE form_teacher_id = $3"
	if _, err := r.db.ExecContext(ctx, query, newTeacherID, time.Now().UTC(), oldTeacherID); err != nil {
		return fmt.Errorf("reassign form teacher: %w", err)
	}
	return nil
}

// Count returns the total number of classes.
func (r *ClassRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM classes"); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return total, nil
}

// Delete removes a class.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM classes WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}
