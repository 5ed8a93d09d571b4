package dto

import "github.com/geulbit/geulbit-api/internal/models"

// RosterExportRequest asks for an asynchronous roster export.
type RosterExportRequest struct {
	ClassID string                    `json:"class_id" validate:"required,uuid4"`
	Format  models.RosterExportFormat `json:"format" validate:"required"`
}

// RosterJobResponse acknowledges an accepted export job.
type RosterJobResponse struct {
	ID       string                    `json:"id"`
	Status   models.RosterExportStatus `json:"status"`
	Progress int                       `json:"progress"`
}

// RosterStatusResponse reports job progress and, once done, the download URL.
type RosterStatusResponse struct {
	ID        string                    `json:"id"`
	Status    models.RosterExportStatus `json:"status"`
	Progress  int                       `json:"progress"`
	ResultURL *string                   `json:"result_url,omitempty"`
	Error     *string                   `json:"error,omitempty"`
}
