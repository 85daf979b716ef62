package models

import "time"

// Score holds one student's marks for a subject in a term. The three parts
// are bounded (CA 0..20 each, exam 0..60) so the total lands in 0..100; the
// bounds are validated on the API write path only.
type Score struct {
	ID                      string    `db:"id" json:"id"`
	StudentID               string    `db:"student_id" json:"student_id"`
	SubjectID               string    `db:"subject_id" json:"subject_id"`
	ClassID                 string    `db:"class_id" json:"class_id"`
	FirstCA                 float64   `db:"first_ca" json:"first_ca"`
	SecondCA                float64   `db:"second_ca" json:"second_ca"`
	Exam                    float64   `db:"exam" json:"exam"`
	Term                    int       `db:"term" json:"term"`
	Session                 string    `db:"session" json:"session"`
	IsPublished             bool      `db:"is_published" json:"is_published"`
	IsApprovedByFormTeacher bool      `db:"is_approved_by_form_teacher" json:"is_approved_by_form_teacher"`
	Comment                 string    `db:"comment" json:"comment"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

// Total returns the combined mark for the row.
func (s Score) Total() float64 {
	return s.FirstCA + s.SecondCA + s.Exam
}

// ScoreFilter scopes score queries. Term 0 and empty strings are wildcards.
type ScoreFilter struct {
	StudentID string
	SubjectID string
	ClassID   string
	Term      int
	Session   string
	Published *bool
}

// StudentResult is the per-student aggregate over one (class, term, session).
type StudentResult struct {
	StudentID string  `json:"student_id"`
	Total     float64 `json:"total"`
	Average   float64 `json:"average"`
	Count     int     `json:"count"`
	Position  int     `json:"position"`
}

// SubjectResult is one graded subject row on a result sheet.
type SubjectResult struct {
	SubjectID   string  `json:"subject_id"`
	SubjectName string  `json:"subject_name,omitempty"`
	FirstCA     float64 `json:"first_ca"`
	SecondCA    float64 `json:"second_ca"`
	Exam        float64 `json:"exam"`
	Total       float64 `json:"total"`
	Grade       string  `json:"grade"`
	Remark      string  `json:"remark"`
	Comment     string  `json:"comment,omitempty"`
}

// BroadsheetRow is one student's line on the class broadsheet.
type BroadsheetRow struct {
	StudentID       string          `json:"student_id"`
	StudentName     string          `json:"student_name"`
	AdmissionNumber string          `json:"admission_number"`
	Subjects        []SubjectResult `json:"subjects"`
	Total           float64         `json:"total"`
	Average         float64         `json:"average"`
	Position        int             `json:"position"`
}
