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

type classRepository interface {
	Create(ctx context.Context, class *models.Class) error
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindByTeacher(ctx context.Context, teacherID string) (*models.Class, error)
	FindByInviteCode(ctx context.Context, code string) (*models.Class, error)
	ExistsByInviteCode(ctx context.Context, code string) (bool, error)
}

// CreateClassRequest names a new class.
type CreateClassRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// ClassServiceConfig tunes invite code generation.
type ClassServiceConfig struct {
	InviteCodeLength int
	CodeAttempts     int
}

// ClassService manages the teacher's class.
type ClassService struct {
	repo      classRepository
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ClassServiceConfig
}

// NewClassService constructs a ClassService instance.
func NewClassService(repo classRepository, validate *validator.Validate, logger *zap.Logger, cfg ClassServiceConfig) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.InviteCodeLength <= 0 {
		cfg.InviteCodeLength = 6
	}
	if cfg.CodeAttempts <= 0 {
		cfg.CodeAttempts = 5
	}
	return &ClassService{repo: repo, validator: validate, logger: logger, cfg: cfg}
}

// Create opens the teacher's class. Each teacher runs exactly one class, so a
// second create is rejected with a conflict.
func (s *ClassService) Create(ctx context.Context, teacherID string, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	if _, err := s.repo.FindByTeacher(ctx, teacherID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already has a class")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing class")
	}

	code, err := s.uniqueInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	class := &models.Class{
		ID:         uuid.NewString(),
		TeacherID:  teacherID,
		Name:       strings.TrimSpace(req.Name),
		InviteCode: code,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	s.logger.Info("class created", zap.String("class_id", class.ID), zap.String("teacher_id", teacherID))
	return class, nil
}

// GetMine returns the caller's class.
func (s *ClassService) GetMine(ctx context.Context, teacherID string) (*models.Class, error) {
	class, err := s.repo.FindByTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no class yet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// LookupInvite resolves an invite code to its class.
func (s *ClassService) LookupInvite(ctx context.Context, code string) (*models.Class, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != s.cfg.InviteCodeLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, "malformed invite code")
	}
	class, err := s.repo.FindByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown invite code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up invite code")
	}
	return class, nil
}

func (s *ClassService) uniqueInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.cfg.CodeAttempts; attempt++ {
		code, err := randomCode(s.cfg.InviteCodeLength)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate invite code")
		}
		taken, err := s.repo.ExistsByInviteCode(ctx, code)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check invite code")
		}
		if !taken {
			return code, nil
		}
		s.logger.Warn("invite code collision", zap.Int("attempt", attempt+1))
	}
	return "", appErrors.ErrCodeExhausted
}
