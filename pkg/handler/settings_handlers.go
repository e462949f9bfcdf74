package handler

import (
	"net/http"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/service"
	"github.com/gin-gonic/gin"
)

// SettingsHandler serves the caller's mediator personality.
type SettingsHandler struct {
	profiles *service.ProfileService
}

func NewSettingsHandler(profiles *service.ProfileService) *SettingsHandler {
	return &SettingsHandler{profiles: profiles}
}

// RegisterRoutes registers settings routes
func (h *SettingsHandler) RegisterRoutes(r *gin.RouterGroup) {
	mediator := r.Group("/settings/mediator")
	{
		mediator.GET("", h.Get)
		mediator.PUT("", h.Update)
		mediator.POST("/reset", h.Reset)
		mediator.GET("/preview", h.Preview)
	}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update replaces the profile
// @Summary Update mediator personality
// @Tags settings
// @Accept json
// @Produce json
// @Param request body models.PersonalityProfile true "Profile"
// @Success 200 {object} models.PersonalityProfile
// @Router /settings/mediator [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req models.PersonalityProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.profiles.Update(c.Request.Context(), userID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *SettingsHandler) Reset(c *gin.Context) {
	p, err := h.profiles.Reset(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Preview returns the instruction text the stored profile produces.
func (h *SettingsHandler) Preview(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instructions": service.ComposePersonality(p)})
}
