package models

import "time"

// RosterExportFormat selects the rendered output type.
type RosterExportFormat string

const (
	RosterFormatPDF RosterExportFormat = "pdf"
	RosterFormatCSV RosterExportFormat = "csv"
)

// RosterExportStatus tracks the job lifecycle.
type RosterExportStatus string

const (
	RosterStatusQueued     RosterExportStatus = "queued"
	RosterStatusProcessing RosterExportStatus = "processing"
	RosterStatusDone       RosterExportStatus = "done"
	RosterStatusFailed     RosterExportStatus = "failed"
)

// RosterExportJob is an asynchronous login-code roster export request.
type RosterExportJob struct {
	ID           string             `db:"id" json:"id"`
	ClassID      string             `db:"class_id" json:"class_id"`
	Format       RosterExportFormat `db:"format" json:"format"`
	Status       RosterExportStatus `db:"status" json:"status"`
	Progress     int                `db:"progress" json:"progress"`
	ResultURL    *string            `db:"result_url" json:"result_url,omitempty"`
	ErrorMessage *string            `db:"error_message" json:"error_message,omitempty"`
	CreatedBy    string             `db:"created_by" json:"created_by"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	StartedAt    *time.Time         `db:"started_at" json:"started_at,omitempty"`
	FinishedAt   *time.Time         `db:"finished_at" json:"finished_at,omitempty"`
}
