package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ppisng/ppis-api/internal/models"
)

// RemarkRepository handles form-teacher remark persistence.
type RemarkRepository struct {
	db *sqlx.DB
}

// NewRemarkRepository creates a new remark repository.
func NewRemarkRepository(db *sqlx.DB) *RemarkRepository {
	return &RemarkRepository{db: db}
}

// ListByClass returns remarks for a (class, term, session) scope.
func (r *RemarkRepository) ListByClass(ctx context.Context, classID string, term int, session string) ([]models.FormTeacherRemark, error) {
	const query = `SELECT id, student_id, class_id, remark, term, session, position, created_at, updated_at
        FROM form_teacher_remarks
        WHERE class_id = $1 AND term = $2 AND session = $3
        ORDER BY position`
	var remarks []models.FormTeacherRemark
	if err := r.db.SelectContext(ctx, &remarks, query, classID, term, session); err != nil {
		return nil, fmt.Errorf("list remarks: %w", err)
	}
	return remarks, nil
}

// FindByStudent returns a student's remark for a (term, session) scope.
func (r *RemarkRepository) FindByStudent(ctx context.Context, studentID string, term int, session string) (*models.FormTeacherRemark, error) {
	const query = `SELECT id, student_id, class_id, remark, term, session, position, created_at, updated_at
        FROM form_teacher_remarks
        WHERE student_id = $1 AND term = $2 AND session = $3 LIMIT 1`
	var remark models.FormTeacherRemark
	if err := r.db.GetContext(ctx, &remark, query, studentID, term, session); err != nil {
		return nil, err
	}
	return &remark, nil
}

// Upsert inserts or updates a remark keyed by (student, class, term, session).
func (r *RemarkRepository) Upsert(ctx context.Context, remark *models.FormTeacherRemark) error {
	if remark.ID == "" {
		remark.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if remark.CreatedAt.IsZero() {
		remark.CreatedAt = now
	}
	remark.UpdatedAt = now
	const query = `INSERT INTO form_teacher_remarks (id, student_id, class_id, remark, term, session, position, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :remark, :term, :session, :position, :created_at, :updated_at)
        ON CONFLICT (student_id, class_id, term, session)
        DO UPDATE SET remark = EXCLUDED.remark, position = EXCLUDED.position, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, remark); err != nil {
		return fmt.Errorf("upsert remark: %w", err)
	}
	return nil
}
