package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/geulbit/geulbit-api/internal/models"
)

// ClassRepository manages persistence for class records.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// Create inserts a new class row.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classes (id, teacher_id, name, invite_code, created_at)
VALUES (:id, :teacher_id, :name, :invite_code, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// FindByID fetches a class by identifier.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, teacher_id, name, invite_code, created_at FROM classes WHERE id = $1 LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class by id: %w", err)
	}
	return &class, nil
}

// FindByTeacher fetches the teacher's class, if any.
func (r *ClassRepository) FindByTeacher(ctx context.Context, teacherID string) (*models.Class, error) {
	const query = `SELECT id, teacher_id, name, invite_code, created_at FROM classes WHERE teacher_id = $1 LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class by teacher: %w", err)
	}
	return &class, nil
}

// FindByInviteCode resolves a class from its invite code.
func (r *ClassRepository) FindByInviteCode(ctx context.Context, code string) (*models.Class, error) {
	const query = `SELECT id, teacher_id, name, invite_code, created_at FROM classes WHERE invite_code = $1 LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class by invite code: %w", err)
	}
	return &class, nil
}

// ExistsByInviteCode checks invite code uniqueness before creation.
func (r *ClassRepository) ExistsByInviteCode(ctx context.Context, code string) (bool, error) {
	const query = `SELECT 1 FROM classes WHERE invite_code = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check invite code: %w", err)
	}
	return true, nil
}
