package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/geulbit/geulbit-api/internal/models"
	appErrors "github.com/geulbit/geulbit-api/pkg/errors"
)

type ledgerStore interface {
	ApplyAdjustment(ctx context.Context, studentID string, amount int, reason string) (int, *models.PointLogEntry, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.PointLogEntry, error)
	SumByStudent(ctx context.Context, studentID string) (int, error)
	SetBalance(ctx context.Context, studentID string, balance int) error
}

type ledgerStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type balanceCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// AdjustPointsRequest is a batch point adjustment gathered from teacher input.
type AdjustPointsRequest struct {
	StudentIDs []string `json:"student_ids"`
	Amount     int      `json:"amount"`
	Reason     string   `json:"reason"`
}

// LedgerServiceConfig bounds adjustment requests and tunes caching.
type LedgerServiceConfig struct {
	MaxBatchSize int
	MaxAbsAmount int
	CacheTTL     time.Duration
}

// LedgerService applies point adjustments and answers balance and history
// queries. Both writes of an adjustment run in one transaction, so the
// invariant balance == sum(log amounts) holds as long as every balance
// mutation goes through here.
type LedgerService struct {
	ledger   ledgerStore
	students ledgerStudentStore
	classes  studentClassStore
	cache    balanceCache
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      LedgerServiceConfig
}

// NewLedgerService constructs the ledger service.
func NewLedgerService(ledger ledgerStore, students ledgerStudentStore, classes studentClassStore, cache balanceCache, metrics *MetricsService, logger *zap.Logger, cfg LedgerServiceConfig) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.MaxAbsAmount <= 0 {
		cfg.MaxAbsAmount = 10000
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &LedgerService{ledger: ledger, students: students, classes: classes, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

// authorize decides whether the actor may touch the student's ledger. A
// student may only reach their own; a teacher must own the student's class.
func (s *LedgerService) authorize(ctx context.Context, actor *models.JWTClaims, studentID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStudent:
		if actor.UserID == studentID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "ledger belongs to another student")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrStudentNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	class, err := s.classes.FindByID(ctx, student.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.TeacherID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "student belongs to another teacher's class")
	}
	return nil
}

// AdjustPoints applies the signed amount to every target student on behalf of
// the acting teacher. Validation failures reject the whole batch before any
// store interaction; after that, targets are processed independently and
// concurrently, and one student's failure never blocks or rolls back the
// others. A target outside the actor's class fails with FORBIDDEN for that
// target only.
func (s *LedgerService) AdjustPoints(ctx context.Context, actor *models.JWTClaims, req AdjustPointsRequest) (*models.AdjustmentResult, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, appErrors.ErrInvalidReason
	}
	if req.Amount == 0 {
		return nil, appErrors.ErrZeroAmount
	}
	if req.Amount > s.cfg.MaxAbsAmount || req.Amount < -s.cfg.MaxAbsAmount {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("amount magnitude exceeds %d", s.cfg.MaxAbsAmount))
	}
	if len(req.StudentIDs) == 0 {
		return nil, appErrors.ErrEmptyTargets
	}
	if len(req.StudentIDs) > s.cfg.MaxBatchSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("batch exceeds %d students", s.cfg.MaxBatchSize))
	}

	outcomes := make([]models.AdjustmentOutcome, len(req.StudentIDs))
	var wg sync.WaitGroup
	for i, studentID := range req.StudentIDs {
		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()
			outcomes[idx] = s.adjustOne(ctx, actor, id, req.Amount, reason)
		}(i, studentID)
	}
	wg.Wait()

	result := &models.AdjustmentResult{Outcomes: outcomes}
	for _, outcome := range outcomes {
		if outcome.OK {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	s.logger.Info("points adjusted",
		zap.Int("amount", req.Amount),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *LedgerService) adjustOne(ctx context.Context, actor *models.JWTClaims, studentID string, amount int, reason string) models.AdjustmentOutcome {
	if err := s.authorize(ctx, actor, studentID); err != nil {
		if s.metrics != nil {
			s.metrics.ObserveAdjustment(false)
		}
		return models.AdjustmentOutcome{StudentID: studentID, OK: false, ErrorCode: appErrors.FromError(err).Code}
	}

	newBalance, _, err := s.ledger.ApplyAdjustment(ctx, studentID, amount, reason)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveAdjustment(false)
		}
		code := appErrors.ErrPersistence.Code
		if errors.Is(err, sql.ErrNoRows) {
			code = appErrors.ErrStudentNotFound.Code
		} else {
			s.logger.Warn("adjustment failed", zap.String("student_id", studentID), zap.Error(err))
		}
		return models.AdjustmentOutcome{StudentID: studentID, OK: false, ErrorCode: code}
	}

	if s.metrics != nil {
		s.metrics.ObserveAdjustment(true)
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, balanceKey(studentID)); err != nil {
			s.logger.Warn("balance cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return models.AdjustmentOutcome{StudentID: studentID, OK: true, NewBalance: newBalance}
}

// GetBalance returns the stored balance through a read-through cache. The
// stored value is authoritative because every write path is transactional.
func (s *LedgerService) GetBalance(ctx context.Context, actor *models.JWTClaims, studentID string) (int, error) {
	if err := s.authorize(ctx, actor, studentID); err != nil {
		return 0, err
	}
	if s.cache != nil {
		var cached int
		if err := s.cache.Get(ctx, balanceKey(studentID), &cached); err == nil {
			if s.metrics != nil {
				s.metrics.ObserveCacheHit()
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.ObserveCacheMiss()
		}
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.ErrStudentNotFound
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, balanceKey(studentID), student.TotalPoints, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("balance cache set failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return student.TotalPoints, nil
}

// GetHistory returns the student's full ledger, newest-first.
func (s *LedgerService) GetHistory(ctx context.Context, actor *models.JWTClaims, studentID string) ([]models.PointLogEntry, error) {
	if err := s.authorize(ctx, actor, studentID); err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrStudentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	entries, err := s.ledger.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load point history")
	}
	return entries, nil
}

// Reconcile recomputes the balance from the log and optionally repairs the
// stored value when they diverge. Divergence here means a write bypassed the
// ledger transaction and is always worth surfacing.
func (s *LedgerService) Reconcile(ctx context.Context, actor *models.JWTClaims, studentID string, repair bool) (*models.ReconcileResult, error) {
	if err := s.authorize(ctx, actor, studentID); err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrStudentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	derived, err := s.ledger.SumByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum point log")
	}

	result := &models.ReconcileResult{
		StudentID: studentID,
		Stored:    student.TotalPoints,
		Derived:   derived,
		Drifted:   student.TotalPoints != derived,
	}
	if !result.Drifted {
		return result, nil
	}

	s.logger.Warn("ledger drift detected",
		zap.String("student_id", studentID),
		zap.Int("stored", student.TotalPoints),
		zap.Int("derived", derived),
	)
	if !repair {
		return result, nil
	}

	if err := s.ledger.SetBalance(ctx, studentID, derived); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrLedgerDrift.Code, appErrors.ErrLedgerDrift.Status, "drift repair failed")
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, balanceKey(studentID)); err != nil {
			s.logger.Warn("balance cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	result.Repaired = true
	return result, nil
}

func balanceKey(studentID string) string {
	return "balance:" + studentID
}
