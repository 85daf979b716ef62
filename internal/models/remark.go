package models

import "time"

// FormTeacherRemark is the form teacher's comment on a student's term result,
// stored together with the position computed at the time of writing.
type FormTeacherRemark struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Remark    string    `db:"remark" json:"remark"`
	Term      int       `db:"term" json:"term"`
	Session   string    `db:"session" json:"session"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
