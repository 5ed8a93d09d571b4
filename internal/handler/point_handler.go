package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geulbit/geulbit-api/internal/service"
	appErrors "github.com/geulbit/geulbit-api/pkg/errors"
	"github.com/geulbit/geulbit-api/pkg/response"
)

// PointHandler exposes the point ledger endpoints.
type PointHandler struct {
	service *service.LedgerService
}

// NewPointHandler creates a new handler.
func NewPointHandler(svc *service.LedgerService) *PointHandler {
	return &PointHandler{service: svc}
}

// Adjust godoc
// @Summary Adjust points for one or more students
// @Description Applies a signed amount with a reason to each target; failures are reported per student
// @Tags Points
// @Accept json
// @Produce json
// @Param payload body service.AdjustPointsRequest true "Adjustment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /points/adjust [post]
func (h *PointHandler) Adjust(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid adjustment payload"))
		return
	}

	result, err := h.service.AdjustPoints(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Balance godoc
// @Summary Get a student's point balance
// @Tags Points
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/balance [get]
func (h *PointHandler) Balance(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	studentID := c.Param("id")
	balance, err := h.service.GetBalance(c.Request.Context(), claims, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"student_id": studentID,
		"balance":    balance,
	}, nil)
}

// History godoc
// @Summary Get a student's full point history, newest first
// @Tags Points
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/history [get]
func (h *PointHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	entries, err := h.service.GetHistory(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, nil)
}

// Reconcile godoc
// @Summary Check a student's stored balance against the point log
// @Tags Points
// @Produce json
// @Param id path string true "Student ID"
// @Param repair query bool false "Repair stored balance when drifted"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/reconcile [post]
func (h *PointHandler) Reconcile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	repair := c.Query("repair") == "true"
	result, err := h.service.Reconcile(c.Request.Context(), claims, c.Param("id"), repair)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
