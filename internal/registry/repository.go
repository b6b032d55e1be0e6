package registry

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusledger/campusledger/internal/shared"
)

// Repository provides PostgreSQL backed access to the student registry.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// normExpr replicates Normalize on the store side so the lookup matches the
// application-side join key.
const normExpr = `LOWER(REPLACE(REPLACE(REPLACE(REPLACE(TRIM(%s), '-', ''), '/', ''), ',', ''), ' ', ''))`

// FindByNormalizedIDs batch-resolves normalized identifiers in one round trip.
func (r *Repository) FindByNormalizedIDs(ctx context.Context, ids []string) ([]Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT admission_number, pin_number, name, college, course, branch, batch, current_year
		FROM students
		WHERE `+normExpr+` = ANY($1)
		   OR `+normExpr+` = ANY($1)`,
		"admission_number", "pin_number")

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, shared.WrapError(shared.KindStore, "registry: find by normalized ids", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		var pin, college, course, branch, batch pgtype.Text
		var year pgtype.Int4
		if err := rows.Scan(&s.AdmissionNumber, &pin, &s.Name, &college, &course, &branch, &batch, &year); err != nil {
			return nil, shared.WrapError(shared.KindStore, "registry: scan student", err)
		}
		s.PinNumber = pin.String
		s.College = college.String
		s.Course = course.String
		s.Branch = branch.String
		s.Batch = batch.String
		s.CurrentYear = int(year.Int32)
		students = append(students, s)
	}
	return students, rows.Err()
}

// Search finds students by name or identifier prefix for operator review.
func (r *Repository) Search(ctx context.Context, q string, limit int) ([]Student, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT admission_number, pin_number, name, college, course, branch, batch, current_year
		FROM students
		WHERE name ILIKE '%' || $1 || '%'
		   OR admission_number ILIKE $1 || '%'
		   OR pin_number ILIKE $1 || '%'
		ORDER BY name
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, q, limit)
	if err != nil {
		return nil, shared.WrapError(shared.KindStore, "registry: search", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		var pin, college, course, branch, batch pgtype.Text
		var year pgtype.Int4
		if err := rows.Scan(&s.AdmissionNumber, &pin, &s.Name, &college, &course, &branch, &batch, &year); err != nil {
			return nil, shared.WrapError(shared.KindStore, "registry: scan student", err)
		}
		s.PinNumber = pin.String
		s.College = college.String
		s.Course = course.String
		s.Branch = branch.String
		s.Batch = batch.String
		s.CurrentYear = int(year.Int32)
		students = append(students, s)
	}
	return students, rows.Err()
}

// NoopStore stands in when the registry store is unavailable. Every lookup
// resolves nothing, so imports degrade to synthetic identifiers instead of
// failing outright.
type NoopStore struct{}

func (NoopStore) FindByNormalizedIDs(ctx context.Context, ids []string) ([]Student, error) {
	return nil, nil
}

func (NoopStore) Search(ctx context.Context, query string, limit int) ([]Student, error) {
	return nil, nil
}
