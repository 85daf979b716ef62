package models

import "time"

// ClassLevel distinguishes junior and senior secondary classes.
type ClassLevel string

const (
	LevelJSS ClassLevel = "JSS"
	LevelSS  ClassLevel = "SS"
)

// SchoolClass represents an academic class (e.g. JSS 2 Gold).
type SchoolClass struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Level         ClassLevel `db:"level" json:"level"`
	Arm           string     `db:"arm" json:"arm"`
	FormTeacherID *string    `db:"form_teacher_id" json:"form_teacher_id,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends SchoolClass with the resolved form teacher name.
type ClassDetail struct {
	SchoolClass
	FormTeacherName *string `db:"form_teacher_name" json:"form_teacher_name,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Level  ClassLevel
	Search string
}
