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

// ProfileRepository manages persistence for registry profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = "id, username, legacy_password, password_hash, role, full_name, created_at, updated_at"

// FindByID fetches a profile by its identity key.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	query := fmt.Sprintf("SELECT %s FROM profiles WHERE id = $1 LIMIT 1", profileColumns)
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByUsername fetches a profile whose username matches any of the given
// forms, case-insensitively, excluding the given id. Admission numbers have
// historically used both "/" and "_" as separators, so callers pass both.
func (r *ProfileRepository) FindByUsername(ctx context.Context, forms []string, excludeID string) (*models.Profile, error) {
	if len(forms) == 0 {
		return nil, fmt.Errorf("find profile: no username forms given")
	}
	placeholders := make([]string, len(forms))
	args := make([]interface{}, 0, len(forms)+1)
	for i, form := range forms {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, strings.ToLower(form))
	}
	query := fmt.Sprintf("SELECT %s FROM profiles WHERE LOWER(username) IN (%s)",
		profileColumns, strings.Join(placeholders, ","))
	if excludeID != "" {
		query += fmt.Sprintf(" AND id != $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"

	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, args...); err != nil {
		return nil, err
	}
	return &profile, nil
}

// List returns profiles matching the provided filters plus a total count.
func (r *ProfileRepository) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, string(*filter.Role))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(username) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	where := strings.Join(conditions, " AND ")

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"username":   "username",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "created_at"
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

	query := fmt.Sprintf("SELECT %s FROM profiles WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		profileColumns, where, column, order, size, offset)

	var profiles []models.Profile
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM profiles WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}
	return profiles, total, nil
}

// Count returns the number of profile rows, optionally scoped to a role.
func (r *ProfileRepository) Count(ctx context.Context, role *models.Role) (int, error) {
	query := "SELECT COUNT(*) FROM profiles"
	var args []interface{}
	if role != nil {
		query += " WHERE role = $1"
		args = append(args, string(*role))
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return total, nil
}

// Upsert inserts or updates a profile keyed by id. Reconciliation relies on
// this being idempotent.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	const query = `INSERT INTO profiles (id, username, legacy_password, password_hash, role, full_name, created_at, updated_at)
        VALUES (:id, :username, :legacy_password, :password_hash, :role, :full_name, :created_at, :updated_at)
        ON CONFLICT (id)
        DO UPDATE SET username = EXCLUDED.username, legacy_password = EXCLUDED.legacy_password,
            password_hash = EXCLUDED.password_hash, role = EXCLUDED.role,
            full_name = EXCLUDED.full_name, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// UpdateUsername renames a profile. Used by the activation flow to park a
// legacy row under a throwaway handle while the auth account is created.
func (r *ProfileRepository) UpdateUsername(ctx context.Context, id, username string) error {
	const query = "UPDATE profiles SET username = $1, updated_at = $2 WHERE id = $3"
	if _, err := r.db.ExecContext(ctx, query, username, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("rename profile: %w", err)
	}
	return nil
}

// Delete removes a profile row.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
