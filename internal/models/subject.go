package models

import "time"

// Subject represents an academic subject offered at a given level.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherSubjectAssignment maps a teacher to a subject taught in a class.
// Duplicates are possible; no uniqueness is enforced on the mapping.
type TeacherSubjectAssignment struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AssignmentDetail is a joined view of an assignment for responses.
type AssignmentDetail struct {
	TeacherSubjectAssignment
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	ClassName   string  `db:"class_name" json:"class_name"`
}

// AssignmentFilter scopes assignment listings.
type AssignmentFilter struct {
	TeacherID string
	SubjectID string
	ClassID   string
}
