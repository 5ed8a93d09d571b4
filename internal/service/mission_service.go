package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/geulbit/geulbit-api/internal/models"
	appErrors "github.com/geulbit/geulbit-api/pkg/errors"
)

type missionRepository interface {
	Create(ctx context.Context, mission *models.WritingMission) error
	ListByClass(ctx context.Context, classID string) ([]models.WritingMission, error)
	FindByID(ctx context.Context, id string) (*models.WritingMission, error)
	Delete(ctx context.Context, id string) error
}

// CreateMissionRequest posts a writing assignment. Zero-valued reward fields
// fall back to the standard defaults.
type CreateMissionRequest struct {
	ClassID        string              `json:"class_id" validate:"required,uuid4"`
	Title          string              `json:"title" validate:"required,max=100"`
	Guide          string              `json:"guide" validate:"max=2000"`
	Genre          models.MissionGenre `json:"genre" validate:"required"`
	MinChars       int                 `json:"min_chars" validate:"min=0"`
	MinParagraphs  int                 `json:"min_paragraphs" validate:"min=0"`
	BaseReward     int                 `json:"base_reward" validate:"min=0"`
	BonusThreshold int                 `json:"bonus_threshold" validate:"min=0"`
	BonusReward    int                 `json:"bonus_reward" validate:"min=0"`
}

// Standard mission defaults applied when a teacher leaves fields blank.
const (
	defaultMinChars       = 100
	defaultMinParagraphs  = 2
	defaultBaseReward     = 100
	defaultBonusThreshold = 100
	defaultBonusReward    = 10
)

// MissionService manages writing assignments.
type MissionService struct {
	repo      missionRepository
	classes   studentClassStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMissionService constructs a MissionService instance.
func NewMissionService(repo missionRepository, classes studentClassStore, validate *validator.Validate, logger *zap.Logger) *MissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MissionService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// Create posts a mission to the teacher's class.
func (s *MissionService) Create(ctx context.Context, teacherID string, req CreateMissionRequest) (*models.WritingMission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mission payload")
	}
	if !models.ValidGenre(req.Genre) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown genre")
	}
	if err := s.checkOwner(ctx, teacherID, req.ClassID); err != nil {
		return nil, err
	}

	mission := &models.WritingMission{
		ID:             uuid.NewString(),
		ClassID:        req.ClassID,
		Title:          strings.TrimSpace(req.Title),
		Guide:          strings.TrimSpace(req.Guide),
		Genre:          req.Genre,
		MinChars:       req.MinChars,
		MinParagraphs:  req.MinParagraphs,
		BaseReward:     req.BaseReward,
		BonusThreshold: req.BonusThreshold,
		BonusReward:    req.BonusReward,
		CreatedAt:      time.Now().UTC(),
	}
	if mission.MinChars == 0 {
		mission.MinChars = defaultMinChars
	}
	if mission.MinParagraphs == 0 {
		mission.MinParagraphs = defaultMinParagraphs
	}
	if mission.BaseReward == 0 {
		mission.BaseReward = defaultBaseReward
	}
	if mission.BonusThreshold == 0 {
		mission.BonusThreshold = defaultBonusThreshold
	}
	if mission.BonusReward == 0 {
		mission.BonusReward = defaultBonusReward
	}

	if err := s.repo.Create(ctx, mission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mission")
	}

	s.logger.Info("mission created", zap.String("mission_id", mission.ID), zap.String("class_id", mission.ClassID))
	return mission, nil
}

// List returns a class's missions, newest first.
func (s *MissionService) List(ctx context.Context, classID string) ([]models.WritingMission, error) {
	missions, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list missions")
	}
	return missions, nil
}

// Get loads a single mission.
func (s *MissionService) Get(ctx context.Context, missionID string) (*models.WritingMission, error) {
	mission, err := s.repo.FindByID(ctx, missionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mission")
	}
	return mission, nil
}

// Delete removes a mission after checking class ownership.
func (s *MissionService) Delete(ctx context.Context, teacherID, missionID string) error {
	mission, err := s.repo.FindByID(ctx, missionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "mission not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mission")
	}
	if err := s.checkOwner(ctx, teacherID, mission.ClassID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, missionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "mission not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete mission")
	}
	return nil
}

func (s *MissionService) checkOwner(ctx context.Context, teacherID, classID string) error {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.TeacherID != teacherID {
		return appErrors.Clone(appErrors.ErrForbidden, "class belongs to another teacher")
	}
	return nil
}
