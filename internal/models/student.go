package models

import "time"

// Student represents a learner registered in the school.
// AdmissionNumber is the externally facing identifier; it is stored
// lower-cased and doubles as the student's login username.
type Student struct {
	ID              string    `db:"id" json:"id"`
	FirstName       string    `db:"first_name" json:"first_name"`
	LastName        string    `db:"last_name" json:"last_name"`
	Gender          string    `db:"gender" json:"gender"`
	ClassID         *string   `db:"class_id" json:"class_id,omitempty"`
	AdmissionNumber string    `db:"admission_number" json:"admission_number"`
	ProfileID       *string   `db:"profile_id" json:"profile_id,omitempty"`
	ParentName      string    `db:"parent_name" json:"parent_name"`
	ParentPhone     string    `db:"parent_phone" json:"parent_phone"`
	ParentEmail     string    `db:"parent_email" json:"parent_email"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassID   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail contains student information with the resolved class name.
type StudentDetail struct {
	Student
	ClassName *string `db:"class_name" json:"class_name,omitempty"`
}
