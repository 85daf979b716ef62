package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ppisng/ppis-api/internal/models"
)

// settingsRowID pins the settings table to a single row.
const settingsRowID = "school"

// SettingsRepository manages the singleton school settings row.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs a SettingsRepository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get fetches the settings row. Callers handle sql.ErrNoRows by substituting
// the configured default.
func (r *SettingsRepository) Get(ctx context.Context) (*models.SchoolSettings, error) {
	const query = `SELECT id, school_name, logo_url, motto, primary_color, current_term, current_session, updated_at
        FROM school_settings WHERE id = $1`
	var settings models.SchoolSettings
	if err := r.db.GetContext(ctx, &settings, query, settingsRowID); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert writes the singleton settings row.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.SchoolSettings) error {
	settings.ID = settingsRowID
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO school_settings (id, school_name, logo_url, motto, primary_color, current_term, current_session, updated_at)
        VALUES (:id, :school_name, :logo_url, :motto, :primary_color, :current_term, :current_session, :updated_at)
        ON CONFLICT (id)
        DO UPDATE SET school_name = EXCLUDED.school_name, logo_url = EXCLUDED.logo_url,
            motto = EXCLUDED.motto, primary_color = EXCLUDED.primary_color,
            current_term = EXCLUDED.current_term, current_session = EXCLUDED.current_session,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
