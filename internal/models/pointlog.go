package models

import "time"

// PointLogEntry is one immutable, reason-annotated point adjustment.
// The sum of a student's entries must always equal their stored balance.
type PointLogEntry struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Amount    int       `db:"amount" json:"amount"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AdjustmentOutcome reports one target's result within a batch adjustment.
type AdjustmentOutcome struct {
	StudentID  string `json:"student_id"`
	OK         bool   `json:"ok"`
	NewBalance int    `json:"new_balance,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
}

// AdjustmentResult aggregates a batch adjustment.
type AdjustmentResult struct {
	Outcomes  []AdjustmentOutcome `json:"outcomes"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

// ReconcileResult compares a stored balance with the log-derived sum.
type ReconcileResult struct {
	StudentID string `json:"student_id"`
	Stored    int    `json:"stored"`
	Derived   int    `json:"derived"`
	Drifted   bool   `json:"drifted"`
	Repaired  bool   `json:"repaired"`
}
