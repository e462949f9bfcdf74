package handler

import (
	"errors"
	"net/http"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/service"
	"github.com/gin-gonic/gin"
)

// ModelHandler exposes provider discovery and connectivity checks.
type ModelHandler struct {
	svc *service.ModelService
}

func NewModelHandler(svc *service.ModelService) *ModelHandler {
	return &ModelHandler{svc: svc}
}

// RegisterRoutes registers model routes
func (h *ModelHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/models/providers", h.Providers)
	r.POST("/models/test", h.Test)
}

func (h *ModelHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.svc.Providers()})
}

// Test checks that a model configuration can answer a prompt
// @Summary Test model connection
// @Tags models
// @Accept json
// @Produce json
// @Param request body models.ModelConfig true "Model configuration"
// @Router /models/test [post]
func (h *ModelHandler) Test(c *gin.Context) {
	var req models.ModelConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.TestConnection(c.Request.Context(), req); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, service.ErrUnsupportedProvider) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "connection ok"})
}
