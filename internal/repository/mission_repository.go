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

// MissionRepository manages persistence for writing missions.
type MissionRepository struct {
	db *sqlx.DB
}

// NewMissionRepository constructs a MissionRepository.
func NewMissionRepository(db *sqlx.DB) *MissionRepository {
	return &MissionRepository{db: db}
}

// Create inserts a new mission row.
func (r *MissionRepository) Create(ctx context.Context, mission *models.WritingMission) error {
	if mission.ID == "" {
		mission.ID = uuid.NewString()
	}
	if mission.CreatedAt.IsZero() {
		mission.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO writing_missions (id, class_id, title, guide, genre, min_chars, min_paragraphs, base_reward, bonus_threshold, bonus_reward, created_at)
VALUES (:id, :class_id, :title, :guide, :genre, :min_chars, :min_paragraphs, :base_reward, :bonus_threshold, :bonus_reward, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, mission); err != nil {
		return fmt.Errorf("create mission: %w", err)
	}
	return nil
}

// ListByClass returns missions newest-first.
func (r *MissionRepository) ListByClass(ctx context.Context, classID string) ([]models.WritingMission, error) {
	const query = `SELECT id, class_id, title, guide, genre, min_chars, min_paragraphs, base_reward, bonus_threshold, bonus_reward, created_at
FROM writing_missions WHERE class_id = $1 ORDER BY created_at DESC`
	var missions []models.WritingMission
	if err := r.db.SelectContext(ctx, &missions, query, classID); err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	return missions, nil
}

// FindByID fetches a mission by identifier.
func (r *MissionRepository) FindByID(ctx context.Context, id string) (*models.WritingMission, error) {
	const query = `SELECT id, class_id, title, guide, genre, min_chars, min_paragraphs, base_reward, bonus_threshold, bonus_reward, created_at
FROM writing_missions WHERE id = $1 LIMIT 1`
	var mission models.WritingMission
	if err := r.db.GetContext(ctx, &mission, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find mission by id: %w", err)
	}
	return &mission, nil
}

// Delete removes a mission row.
func (r *MissionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM writing_missions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete mission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete mission rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
