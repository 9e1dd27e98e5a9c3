package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/scolaris/recouvrement-api/internal/models"
)

// StudentRepository provides the read-side lookups the ledger and campaign
// modules need: students, classes, academic years and enrollments.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, parent_name, phone, active, created_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindClassByID returns a class by its ID.
func (r *StudentRepository) FindClassByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, level FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindAcademicYearByID returns an academic year by its ID.
func (r *StudentRepository) FindAcademicYearByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	const query = `SELECT id, label, starts_on, ends_on, active FROM academic_years WHERE id = $1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// FindEnrollment returns the student's active enrollment for a year with
// class context, or sql.ErrNoRows when the student is not enrolled.
func (r *StudentRepository) FindEnrollment(ctx context.Context, studentID, academicYearID string) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.class_id, e.academic_year_id, e.status, e.joined_at,
        c.name AS class_name, c.level AS class_level
        FROM enrollments e
        JOIN classes c ON c.id = e.class_id
        WHERE e.student_id = $1 AND e.academic_year_id = $2 AND e.status = $3`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, studentID, academicYearID, models.EnrollmentStatusActive); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ValidateIDs checks which of the provided student IDs exist, returning the
// found set. Chunked so campaign creation can validate large batches.
func (r *StudentRepository) ValidateIDs(ctx context.Context, studentIDs []string) (map[string]bool, error) {
	if len(studentIDs) == 0 {
		return map[string]bool{}, nil
	}
	const chunkSize = 100
	existing := make(map[string]bool, len(studentIDs))
	for start := 0; start < len(studentIDs); start += chunkSize {
		end := start + chunkSize
		if end > len(studentIDs) {
			end = len(studentIDs)
		}
		chunk := studentIDs[start:end]
		marks := make([]string, len(chunk))
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			marks[i] = fmt.Sprintf("$%d", i+1)
			args[i] = id
		}
		query := fmt.Sprintf("SELECT id FROM students WHERE id IN (%s)", strings.Join(marks, ","))
		rows, err := r.db.QueryxContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("validate students: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan student id: %w", err)
			}
			existing[id] = true
		}
		rows.Close()
	}
	return existing, nil
}
