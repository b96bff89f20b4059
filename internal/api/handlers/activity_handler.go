package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Marga-Ghale/ora-authz/internal/api/middleware"
	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/service"
	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService service.ActivityService
}

// GetMyActivities handles GET /api/activities/me?limit=50
func (h *ActivityHandler) GetMyActivities(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	activities, err := h.activityService.Mine(c.Request.Context(), userID, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapList(activities, toActivityResponse))
}

// GetEntityActivities handles GET /api/activities/:entityType/:id. The caller
// needs read access to the entity itself.
func (h *ActivityHandler) GetEntityActivities(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	resource, err := authz.ParseResource(strings.ToUpper(c.Param("entityType")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entity type"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	activities, err := h.activityService.ForEntity(c.Request.Context(), userID, resource, c.Param("id"), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapList(activities, toActivityResponse))
}
