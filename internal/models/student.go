package models

import "time"

// Student is a class member identified by a printable login code.
// TotalPoints is mutated only through ledger adjustments.
type Student struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	Name        string    `db:"name" json:"name"`
	LoginCode   string    `db:"login_code" json:"login_code"`
	TotalPoints int       `db:"total_points" json:"total_points"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins the owning class name for login responses.
type StudentDetail struct {
	Student
	ClassName string `db:"class_name" json:"class_name"`
}
