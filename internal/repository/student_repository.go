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

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `s.id, s.first_name, s.last_name, s.gender, s.class_id, s.admission_number,
        s.profile_id, s.parent_name, s.parent_phone, s.parent_email, s.created_at, s.updated_at`

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s LEFT JOIN classes c ON c.id = s.class_id"
	var args []interface{}
	conditions := []string{"1=1"}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(s.first_name) LIKE $%d OR LOWER(s.last_name) LIKE $%d OR LOWER(s.admission_number) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"last_name":        "s.last_name",
		"admission_number": "s.admission_number",
		"created_at":       "s.created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s, c.name AS class_name %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		studentColumns, base, column, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListByClass returns every student in a class, unpaginated. The ranking
// path depends on the full roster, so no LIMIT applies here.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, c.name AS class_name
        FROM students s LEFT JOIN classes c ON c.id = s.class_id
        WHERE s.class_id = $1
        ORDER BY s.last_name ASC, s.first_name ASC`, studentColumns)
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list class roster: %w", err)
	}
	return students, nil
}

// FindByID fetches a student detail by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, c.name AS class_name
        FROM students s LEFT JOIN classes c ON c.id = s.class_id
        WHERE s.id = $1`, studentColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByAdmissionNumber fetches a student by the lower-cased admission number.
func (r *StudentRepository) FindByAdmissionNumber(ctx context.Context, admissionNumber string) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, c.name AS class_name
        FROM students s LEFT JOIN classes c ON c.id = s.class_id
        WHERE LOWER(s.admission_number) = $1`, studentColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, strings.ToLower(admissionNumber)); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Upsert inserts or updates a student record.
func (r *StudentRepository) Upsert(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	student.AdmissionNumber = strings.ToLower(student.AdmissionNumber)
	const query = `INSERT INTO students (id, first_name, last_name, gender, class_id, admission_number,
            profile_id, parent_name, parent_phone, parent_email, created_at, updated_at)
        VALUES (:id, :first_name, :last_name, :gender, :class_id, :admission_number,
            :profile_id, :parent_name, :parent_phone, :parent_email, :created_at, :updated_at)
        ON CONFLICT (id)
        DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
            gender = EXCLUDED.gender, class_id = EXCLUDED.class_id,
            admission_number = EXCLUDED.admission_number, profile_id = EXCLUDED.profile_id,
            parent_name = EXCLUDED.parent_name, parent_phone = EXCLUDED.parent_phone,
            parent_email = EXCLUDED.parent_email, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("upsert student: %w", err)
	}
	return nil
}

// UpdateClass moves a single student to a new class. Promotion issues one of
// these per student so each move stands on its own.
func (r *StudentRepository) UpdateClass(ctx context.Context, studentID, classID string) error {
	const query = "UPDATE students SET class_id = $1, updated_at = $2 WHERE id = $3"
	if _, err := r.db.ExecContext(ctx, query, classID, time.Now().UTC(), studentID); err != nil {
		return fmt.Errorf("move student %s: %w", studentID, err)
	}
	return nil
}

// ReassignProfile re-points students owned by the old profile id to the new
// one. Idempotent: once no rows carry the old id, it is a no-op.
func (r *StudentRepository) ReassignProfile(ctx context.Context, oldProfileID, newProfileID string) error {
	const query = "UPDATE students SET profile_id = $1, updated_at = $2 WHERE profile_id = $3"
	if _, err := r.db.ExecContext(ctx, query, newProfileID, time.Now().UTC(), oldProfileID); err != nil {
		return fmt.Errorf("reassign student profile: %w", err)
	}
	return nil
}

// AdoptLegacyID covers the historical layout where a student row shared its
// id with its profile: the row whose own id equals the legacy profile id gets
// its profile pointer set to the new id.
func (r *StudentRepository) AdoptLegacyID(ctx context.Context, legacyID, newProfileID string) error {
	const query = "UPDATE students SET profile_id = $1, updated_at = $2 WHERE id = $3"
	if _, err := r.db.ExecContext(ctx, query, newProfileID, time.Now().UTC(), legacyID); err != nil {
		return fmt.Errorf("adopt legacy student id: %w", err)
	}
	return nil
}

// FindByProfile fetches the student owned by a profile, if any.
func (r *StudentRepository) FindByProfile(ctx context.Context, profileID string) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, c.name AS class_name
        FROM students s LEFT JOIN classes c ON c.id = s.class_id
        WHERE s.profile_id = $1 LIMIT 1`, studentColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, profileID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Count returns the total number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// Delete removes a student record.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
