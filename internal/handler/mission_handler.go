package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geulbit/geulbit-api/internal/service"
	appErrors "github.com/geulbit/geulbit-api/pkg/errors"
	"github.com/geulbit/geulbit-api/pkg/response"
)

// MissionHandler exposes writing mission endpoints.
type MissionHandler struct {
	service *service.MissionService
}

// NewMissionHandler creates a new handler.
func NewMissionHandler(svc *service.MissionService) *MissionHandler {
	return &MissionHandler{service: svc}
}

// Create godoc
// @Summary Post a writing mission
// @Tags Missions
// @Accept json
// @Produce json
// @Param payload body service.CreateMissionRequest true "Mission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /missions [post]
func (h *MissionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mission payload"))
		return
	}

	mission, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, mission)
}

// List godoc
// @Summary List a class's missions, newest first
// @Tags Missions
// @Produce json
// @Param classId query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /missions [get]
func (h *MissionHandler) List(c *gin.Context) {
	classID := c.Query("classId")
	if classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "classId required"))
		return
	}

	missions, err := h.service.List(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, missions, nil)
}

// Get godoc
// @Summary Fetch a single mission
// @Tags Missions
// @Produce json
// @Param id path string true "Mission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /missions/{id} [get]
func (h *MissionHandler) Get(c *gin.Context) {
	mission, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, mission, nil)
}

// Delete godoc
// @Summary Delete a mission
// @Tags Missions
// @Produce json
// @Param id path string true "Mission ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /missions/{id} [delete]
func (h *MissionHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
