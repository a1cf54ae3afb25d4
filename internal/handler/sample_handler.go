package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/records-timeline/internal/models"
	"github.com/jengzang/records-timeline/internal/service"
	"github.com/jengzang/records-timeline/pkg/response"
)

// SampleHandler handles HTTP requests for samples
type SampleHandler struct {
	service *service.SampleService
}

// NewSampleHandler creates a new sample handler
func NewSampleHandler(service *service.SampleService) *SampleHandler {
	return &SampleHandler{service: service}
}

// ImportSamplesRequest is the body of POST /api/v1/samples
type ImportSamplesRequest struct {
	Samples []*models.Sample `json:"samples" binding:"required"`
}

// ImportSamples handles POST /api/v1/samples
func (h *SampleHandler) ImportSamples(c *gin.Context) {
	var req ImportSamplesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	n, err := h.service.Import(c.Request.Context(), req.Samples)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Failed to import samples", err)
		return
	}

	response.Success(c, gin.H{"imported": n})
}

// GetSamples handles GET /api/v1/samples
func (h *SampleHandler) GetSamples(c *gin.Context) {
	var filter models.SampleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	resp, err := h.service.GetSamples(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, "Failed to get samples", err)
		return
	}

	response.Success(c, resp)
}
