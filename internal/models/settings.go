package models

import "time"

// SchoolSettings is the singleton branding and calendar row. When the row is
// absent a hardcoded default from config is served instead.
type SchoolSettings struct {
	ID             string    `db:"id" json:"id"`
	SchoolName     string    `db:"school_name" json:"school_name"`
	LogoURL        string    `db:"logo_url" json:"logo_url"`
	Motto          string    `db:"motto" json:"motto"`
	PrimaryColor   string    `db:"primary_color" json:"primary_color"`
	CurrentTerm    int       `db:"current_term" json:"current_term"`
	CurrentSession string    `db:"current_session" json:"current_session"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// DashboardSummary aggregates the counts shown on the admin landing page.
// Individual fetch failures degrade to zero values rather than failing the
// whole payload.
type DashboardSummary struct {
	Students    int             `json:"students"`
	Teachers    int             `json:"teachers"`
	Classes     int             `json:"classes"`
	Subjects    int             `json:"subjects"`
	Scores      int             `json:"scores"`
	Settings    *SchoolSettings `json:"settings,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}
