package handlers

import (
	"net/http"

	"github.com/Marga-Ghale/ora-authz/internal/api/middleware"
	"github.com/Marga-Ghale/ora-authz/internal/models"
	"github.com/Marga-Ghale/ora-authz/internal/tools"
	"github.com/gin-gonic/gin"
)

// ============================================
// Assistant Handler
// ============================================

// AssistantHandler exposes the tool gateway to the chat assistant. Every
// dispatch answers 200 with a tools.Result; the assistant reads Status from
// the body, never the HTTP code.
type AssistantHandler struct {
	gateway *tools.Gateway
}

func (h *AssistantHandler) ListTools(c *gin.Context) {
	if _, ok := middleware.RequireUserID(c); !ok {
		return
	}
	c.JSON(http.StatusOK, h.gateway.Tools())
}

func (h *AssistantHandler) Dispatch(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.DispatchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result := h.gateway.Dispatch(c.Request.Context(), c.Param("name"), tools.Args(req.Args), userID)
	c.JSON(http.StatusOK, result)
}
