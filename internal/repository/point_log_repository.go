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

// PointLogRepository owns the point ledger: the students.total_points
// balance column and the append-only point_logs table. Every balance write
// goes through ApplyAdjustment so the two stay transactionally coupled.
type PointLogRepository struct {
	db *sqlx.DB
}

// NewPointLogRepository constructs a PointLogRepository.
func NewPointLogRepository(db *sqlx.DB) *PointLogRepository {
	return &PointLogRepository{db: db}
}

// ApplyAdjustment atomically increments a student's balance and appends the
// matching log entry. The increment runs against the stored value inside the
// transaction, so concurrent adjustments serialize on the student row and
// never lose an update. Returns sql.ErrNoRows when the student is unknown.
func (r *PointLogRepository) ApplyAdjustment(ctx context.Context, studentID string, amount int, reason string) (int, *models.PointLogEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("begin adjustment: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback() //nolint:errcheck
		}
	}()

	now := time.Now().UTC()
	var newBalance int
	const updateQuery = `UPDATE students SET total_points = total_points + $1, updated_at = $2 WHERE id = $3 RETURNING total_points`
	if err := tx.GetContext(ctx, &newBalance, updateQuery, amount, now, studentID); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("update balance: %w", err)
	}

	entry := &models.PointLogEntry{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Amount:    amount,
		Reason:    reason,
		CreatedAt: now,
	}
	const insertQuery = `INSERT INTO point_logs (id, student_id, amount, reason, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, insertQuery, entry.ID, entry.StudentID, entry.Amount, entry.Reason, entry.CreatedAt); err != nil {
		return 0, nil, fmt.Errorf("append point log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("commit adjustment: %w", err)
	}
	committed = true
	return newBalance, entry, nil
}

// ListByStudent returns all log entries newest-first.
func (r *PointLogRepository) ListByStudent(ctx context.Context, studentID string) ([]models.PointLogEntry, error) {
	const query = `SELECT id, student_id, amount, reason, created_at
FROM point_logs WHERE student_id = $1 ORDER BY created_at DESC, id DESC`
	var entries []models.PointLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("list point logs: %w", err)
	}
	return entries, nil
}

// SumByStudent recomputes the balance from the log.
func (r *PointLogRepository) SumByStudent(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM point_logs WHERE student_id = $1`
	var sum int
	if err := r.db.GetContext(ctx, &sum, query, studentID); err != nil {
		return 0, fmt.Errorf("sum point logs: %w", err)
	}
	return sum, nil
}

// SetBalance overwrites the stored balance. Used only by reconciliation
// repair after the log-derived sum has been established as the truth.
func (r *PointLogRepository) SetBalance(ctx context.Context, studentID string, balance int) error {
	const query = `UPDATE students SET total_points = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, balance, time.Now().UTC(), studentID)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set balance rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
