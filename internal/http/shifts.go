package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"equipment-monitor/internal/service"
)

type shiftRequest struct {
	UserID      int64  `json:"user_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
}

func (r shiftRequest) input() service.ShiftInput {
	return service.ShiftInput{
		UserID:      r.UserID,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Description: r.Description,
	}
}

func (h *Handler) listShifts(c *gin.Context) {
	id, _ := currentIdentity(c)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	shifts, err := h.shifts.List(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]ShiftResponse, 0, len(shifts))
	for _, shift := range shifts {
		resp = append(resp, shiftToResponse(shift))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createShift(c *gin.Context) {
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, _ := currentIdentity(c)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	shiftID, err := h.shifts.Create(ctx, id, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": shiftID, "message": "Shift created successfully"})
}

func (h *Handler) updateShift(c *gin.Context) {
	shiftID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shift id"})
		return
	}
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, _ := currentIdentity(c)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.shifts.Update(ctx, id, shiftID, req.input()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shift updated successfully"})
}

func (h *Handler) deleteShift(c *gin.Context) {
	shiftID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shift id"})
		return
	}
	id, _ := currentIdentity(c)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.shifts.Delete(ctx, id, shiftID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shift deleted successfully"})
}
