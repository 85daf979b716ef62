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

// SubjectRepository manages persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects, optionally filtered by category.
func (r *SubjectRepository) List(ctx context.Context, category string) ([]models.Subject, error) {
	query := "SELECT id, name, category, created_at, updated_at FROM subjects WHERE 1=1"
	var args []interface{}
	if category != "" {
		query += " AND category = $1"
		args = append(args, category)
	}
	query += " ORDER BY name"

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID fetches a subject by ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = "SELECT id, name, category, created_at, updated_at FROM subjects WHERE id = $1"
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindByIDs fetches subjects keyed by id.
func (r *SubjectRepository) FindByIDs(ctx context.Context, ids []string) (map[string]models.Subject, error) {
	if len(ids) == 0 {
		return map[string]models.Subject{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT id, name, category, created_at, updated_at FROM subjects WHERE id IN (%s)",
		strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch subjects: %w", err)
	}
	defer rows.Close()
	result := make(map[string]models.Subject, len(ids))
	for rows.Next() {
		var subject models.Subject
		if err := rows.StructScan(&subject); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		result[subject.ID] = subject
	}
	return result, nil
}

// Upsert inserts or updates a subject.
func (r *SubjectRepository) Upsert(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, name, category, created_at, updated_at)
        VALUES (:id, :name, :category, :created_at, :updated_at)
        ON CONFLICT (id)
        DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("upsert subject: %w", err)
	}
	return nil
}

// Count returns the total number of subjects.
func (r *SubjectRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM subjects"); err != nil {
		return 0, fmt.Errorf("count subjects: %w", err)
	}
	return total, nil
}

// Delete removes a subject.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM subjects WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}
