package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-bk-api/internal/models"
)

// TeacherRepository manages persistence for the counseling roster.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// All returns the complete roster ordered by id.
func (r *TeacherRepository) All(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, nip, full_name, role, active, absent_on, backup_on, tester_on, yearly_load, created_at, updated_at
	FROM teachers ORDER BY id`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// Upsert writes one roster row, inserting when the id is new.
func (r *TeacherRepository) Upsert(ctx context.Context, t *models.Teacher) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	const query = `INSERT INTO teachers
	(id, nip, full_name, role, active, absent_on, backup_on, tester_on, yearly_load, created_at, updated_at)
	VALUES (:id, :nip, :full_name, :role, :active, :absent_on, :backup_on, :tester_on, :yearly_load, :created_at, :updated_at)
	ON CONFLICT (id) DO UPDATE SET
	nip = EXCLUDED.nip,
	full_name = EXCLUDED.full_name,
	role = EXCLUDED.role,
	active = EXCLUDED.active,
	absent_on = EXCLUDED.absent_on,
	backup_on = EXCLUDED.backup_on,
	tester_on = EXCLUDED.tester_on,
	yearly_load = EXCLUDED.yearly_load,
	updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("upsert teacher: %w", err)
	}
	return nil
}
