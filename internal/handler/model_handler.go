package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/records-timeline/internal/service"
	"github.com/jengzang/records-timeline/pkg/response"
)

// ModelHandler handles HTTP requests for region activity models
type ModelHandler struct {
	service *service.ModelService
}

// NewModelHandler creates a new model handler
func NewModelHandler(service *service.ModelService) *ModelHandler {
	return &ModelHandler{service: service}
}

// Rebuild handles POST /api/v1/models/rebuild
func (h *ModelHandler) Rebuild(c *gin.Context) {
	result, err := h.service.Rebuild(c.Request.Context())
	if err != nil {
		response.InternalError(c, "Failed to rebuild models", err)
		return
	}

	response.Success(c, result)
}
