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

type studentRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByLoginCode(ctx context.Context, code string) (*models.StudentDetail, error)
	ExistsByLoginCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type studentClassStore interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// AddStudentRequest enrolls one student into a class.
type AddStudentRequest struct {
	ClassID string `json:"class_id" validate:"required,uuid4"`
	Name    string `json:"name" validate:"required,max=50"`
}

// CodeLoginRequest authenticates a student by login code.
type CodeLoginRequest struct {
	Code string `json:"code" validate:"required,len=8"`
}

// StudentLoginResponse pairs the issued token with the student profile.
type StudentLoginResponse struct {
	AccessToken string                `json:"access_token"`
	ExpiresIn   int64                 `json:"expires_in"`
	Student     *models.StudentDetail `json:"student"`
}

// StudentServiceConfig tunes login code generation.
type StudentServiceConfig struct {
	CodeLength   int
	CodeAttempts int
}

// StudentService manages class rosters and student code login.
type StudentService struct {
	repo      studentRepository
	classes   studentClassStore
	auth      *AuthService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       StudentServiceConfig
}

// NewStudentService constructs a StudentService instance.
func NewStudentService(repo studentRepository, classes studentClassStore, auth *AuthService, validate *validator.Validate, logger *zap.Logger, cfg StudentServiceConfig) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 8
	}
	if cfg.CodeAttempts <= 0 {
		cfg.CodeAttempts = 5
	}
	return &StudentService{repo: repo, classes: classes, auth: auth, validator: validate, logger: logger, cfg: cfg}
}

// Add enrolls a student and assigns a fresh login code. Codes are drawn
// uniformly from the 36-symbol alphabet and checked for global uniqueness,
// with a bounded retry on the vanishingly rare collision.
func (s *StudentService) Add(ctx context.Context, teacherID string, req AddStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another teacher")
	}

	code, err := s.uniqueLoginCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	student := &models.Student{
		ID:        uuid.NewString(),
		ClassID:   class.ID,
		Name:      strings.TrimSpace(req.Name),
		LoginCode: code,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.logger.Info("student enrolled", zap.String("student_id", student.ID), zap.String("class_id", class.ID))
	return student, nil
}

// List returns the class roster ordered by name.
func (s *StudentService) List(ctx context.Context, teacherID, classID string) ([]models.Student, error) {
	if err := s.checkClassOwner(ctx, teacherID, classID); err != nil {
		return nil, err
	}
	students, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns one student, enforcing class ownership.
func (s *StudentService) Get(ctx context.Context, teacherID, studentID string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrStudentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.checkClassOwner(ctx, teacherID, student.ClassID); err != nil {
		return nil, err
	}
	return student, nil
}

// Remove deletes a student together with their entire point log. The cascade
// runs in one transaction, so no orphaned log rows survive a removal.
func (s *StudentService) Remove(ctx context.Context, teacherID, studentID string) error {
	if _, err := s.Get(ctx, teacherID, studentID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrStudentNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.logger.Info("student removed", zap.String("student_id", studentID))
	return nil
}

// LoginByCode authenticates a student by login code and issues a token.
func (s *StudentService) LoginByCode(ctx context.Context, req CodeLoginRequest) (*StudentLoginResponse, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login code payload")
	}

	student, err := s.repo.FindByLoginCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "unknown login code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up login code")
	}

	token, expiresIn, err := s.auth.IssueStudentToken(student)
	if err != nil {
		return nil, err
	}
	return &StudentLoginResponse{AccessToken: token, ExpiresIn: expiresIn, Student: student}, nil
}

func (s *StudentService) uniqueLoginCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.cfg.CodeAttempts; attempt++ {
		code, err := randomCode(s.cfg.CodeLength)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate login code")
		}
		taken, err := s.repo.ExistsByLoginCode(ctx, code)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check login code")
		}
		if !taken {
			return code, nil
		}
		s.logger.Warn("login code collision", zap.Int("attempt", attempt+1))
	}
	return "", appErrors.ErrCodeExhausted
}

func (s *StudentService) checkClassOwner(ctx context.Context, teacherID, classID string) error {
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
