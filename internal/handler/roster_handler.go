package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geulbit/geulbit-api/internal/dto"
	"github.com/geulbit/geulbit-api/internal/models"
	"github.com/geulbit/geulbit-api/internal/service"
	appErrors "github.com/geulbit/geulbit-api/pkg/errors"
	"github.com/geulbit/geulbit-api/pkg/response"
)

type rosterService interface {
	CreateJob(ctx context.Context, req dto.RosterExportRequest, teacherID string) (*dto.RosterJobResponse, error)
	GetStatus(ctx context.Context, id, teacherID string) (*dto.RosterStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.RosterDownload, error)
}

// RosterHandler exposes roster export endpoints.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler creates a new handler.
func NewRosterHandler(svc rosterService) *RosterHandler {
	return &RosterHandler{service: svc}
}

// Export godoc
// @Summary Queue a login-code roster export
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.RosterExportRequest true "Export payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /roster-exports [post]
func (h *RosterHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RosterExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}

	job, err := h.service.CreateJob(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Get roster export job status
// @Tags Roster
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /roster-exports/{id} [get]
func (h *RosterHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	status, err := h.service.GetStatus(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished roster export
// @Tags Roster
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /roster-exports/download/{token} [get]
func (h *RosterHandler) Download(c *gin.Context) {
	result, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck

	info, err := result.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), mimeForFormat(result.Format), result.File, nil)
}

func mimeForFormat(format models.RosterExportFormat) string {
	switch format {
	case models.RosterFormatPDF:
		return "application/pdf"
	case models.RosterFormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
