package models

import "time"

// Student is the read-side projection of a pupil used by the ledger and
// campaign modules. Parent contact fields feed delivery-time placeholder
// rendering, which happens outside this service.
type Student struct {
	ID         string    `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"full_name"`
	ParentName string    `db:"parent_name" json:"parent_name"`
	Phone      string    `db:"phone" json:"phone"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Class groups students under a level (e.g. "6EME", "TLE").
type Class struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Level string `db:"level" json:"level"`
}

// AcademicYear identifies a school year window.
type AcademicYear struct {
	ID       string    `db:"id" json:"id"`
	Label    string    `db:"label" json:"label"`
	StartsOn time.Time `db:"starts_on" json:"starts_on"`
	EndsOn   time.Time `db:"ends_on" json:"ends_on"`
	Active   bool      `db:"active" json:"active"`
}

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive EnrollmentStatus = "ACTIVE"
	EnrollmentStatusLeft   EnrollmentStatus = "LEFT"
)

// Enrollment registers a student to a class for an academic year.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	ClassID        string           `db:"class_id" json:"class_id"`
	AcademicYearID string           `db:"academic_year_id" json:"academic_year_id"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	JoinedAt       time.Time        `db:"joined_at" json:"joined_at"`
}

// EnrollmentDetail enriches Enrollment with class context for scope matching.
type EnrollmentDetail struct {
	Enrollment
	ClassName  string `db:"class_name" json:"class_name"`
	ClassLevel string `db:"class_level" json:"class_level"`
}
