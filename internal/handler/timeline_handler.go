package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/records-timeline/internal/models"
	"github.com/jengzang/records-timeline/internal/service"
	"github.com/jengzang/records-timeline/pkg/response"
)

// TimelineHandler handles HTTP requests for timeline segments
type TimelineHandler struct {
	service *service.TimelineService
}

// NewTimelineHandler creates a new timeline handler
func NewTimelineHandler(service *service.TimelineService) *TimelineHandler {
	return &TimelineHandler{service: service}
}

// Rebuild handles POST /api/v1/timeline/rebuild
func (h *TimelineHandler) Rebuild(c *gin.Context) {
	var req models.RebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.service.Rebuild(c.Request.Context(),
		time.Unix(req.StartTime, 0).UTC(), time.Unix(req.EndTime, 0).UTC())
	if errors.Is(err, service.ErrInvalidRange) {
		response.Error(c, http.StatusBadRequest, "Invalid time range", err)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to rebuild timeline", err)
		return
	}

	response.Success(c, result)
}

// GetSegments handles GET /api/v1/timeline/segments
func (h *TimelineHandler) GetSegments(c *gin.Context) {
	var filter models.SegmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	resp, err := h.service.GetSegments(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, "Failed to get segments", err)
		return
	}

	response.Success(c, resp)
}

// GetSegmentByID handles GET /api/v1/timeline/segments/:id
func (h *TimelineHandler) GetSegmentByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid segment ID", err)
		return
	}

	segment, err := h.service.GetSegmentByID(c.Request.Context(), id)
	if errors.Is(err, service.ErrSegmentNotFound) {
		response.NotFound(c, "Segment not found")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to get segment", err)
		return
	}

	response.Success(c, segment)
}
