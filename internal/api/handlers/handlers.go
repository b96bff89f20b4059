package handlers

import (
	"errors"
	"net/http"

	"github.com/Marga-Ghale/ora-authz/internal/api/middleware"
	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/models"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"github.com/Marga-Ghale/ora-authz/internal/service"
	"github.com/Marga-Ghale/ora-authz/internal/tools"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	User       *UserHandler
	Workspace  *WorkspaceHandler
	Member     *MemberHandler
	Project    *ProjectHandler
	Task       *TaskHandler
	Bug        *BugHandler
	Document   *DocumentHandler
	Comment    *CommentHandler
	Attachment *AttachmentHandler
	Activity   *ActivityHandler
	Assistant  *AssistantHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services, gateway *tools.Gateway) *Handlers {
	return &Handlers{
		User:       &UserHandler{userService: services.User},
		Workspace:  &WorkspaceHandler{workspaceService: services.Workspace},
		Member:     &MemberHandler{memberService: services.Member},
		Project:    &ProjectHandler{projectService: services.Project},
		Task:       &TaskHandler{taskService: services.Task},
		Bug:        &BugHandler{bugService: services.Bug},
		Document:   &DocumentHandler{documentService: services.Document},
		Comment:    &CommentHandler{commentService: services.Comment},
		Attachment: &AttachmentHandler{attachmentService: services.Attachment},
		Activity:   &ActivityHandler{activityService: services.Activity},
		Assistant:  &AssistantHandler{gateway: gateway},
	}
}

// RegisterRoutes mounts every authenticated route on the given group.
// assistantLimit guards only the tool dispatch endpoint.
func RegisterRoutes(api *gin.RouterGroup, h *Handlers, assistantLimit gin.HandlerFunc) {
	api.Use(middleware.ValidateIDParams())

	users := api.Group("/users")
	{
		users.GET("/me", h.User.GetCurrentUser)
	}

	workspaces := api.Group("/workspaces")
	{
		workspaces.POST("", h.Workspace.Create)
		workspaces.GET("", h.Workspace.List)
		workspaces.GET("/:id", h.Workspace.Get)
		workspaces.PUT("/:id", h.Workspace.Update)
		workspaces.DELETE("/:id", h.Workspace.Delete)

		workspaces.GET("/:id/members", h.Member.List)
		workspaces.POST("/:id/members", h.Member.Invite)

		workspaces.GET("/:id/projects", h.Project.ListByWorkspace)
		workspaces.POST("/:id/projects", h.Project.Create)
	}

	members := api.Group("/members")
	{
		members.PUT("/:id/role", h.Member.UpdateRole)
		members.DELETE("/:id", h.Member.Remove)
	}

	projects := api.Group("/projects")
	{
		projects.GET("", h.Project.List)
		projects.GET("/:id", h.Project.Get)
		projects.PUT("/:id", h.Project.Update)
		projects.DELETE("/:id", h.Project.Delete)

		projects.GET("/:id/tasks", h.Task.ListByProject)
		projects.POST("/:id/tasks", h.Task.Create)
		projects.GET("/:id/bugs", h.Bug.ListByProject)
		projects.POST("/:id/bugs", h.Bug.Report)
		projects.GET("/:id/documents", h.Document.ListByProject)
		projects.POST("/:id/documents", h.Document.Create)
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("", h.Task.List)
		tasks.GET("/:id", h.Task.Get)
		tasks.PUT("/:id", h.Task.Update)
		tasks.PATCH("/:id/status", h.Task.UpdateStatus)
		tasks.PUT("/:id/assignee", h.Task.Assign)
		tasks.DELETE("/:id", h.Task.Delete)

		tasks.GET("/:id/comments", h.Comment.ListByTask)
		tasks.POST("/:id/comments", h.Comment.Create)
	}

	bugs := api.Group("/bugs")
	{
		bugs.GET("/:id", h.Bug.Get)
		bugs.PATCH("/:id/status", h.Bug.UpdateStatus)
		bugs.PUT("/:id/assignee", h.Bug.Assign)
		bugs.DELETE("/:id", h.Bug.Delete)
	}

	documents := api.Group("/documents")
	{
		documents.GET("/:id", h.Document.Get)
		documents.PUT("/:id", h.Document.Update)
		documents.DELETE("/:id", h.Document.Delete)
	}

	comments := api.Group("/comments")
	{
		comments.PUT("/:id", h.Comment.Update)
		comments.DELETE("/:id", h.Comment.Delete)
		comments.GET("/:id/attachments", h.Attachment.ListByComment)
		comments.POST("/:id/attachments", h.Attachment.Create)
	}

	attachments := api.Group("/attachments")
	{
		attachments.GET("/:id", h.Attachment.Get)
		attachments.DELETE("/:id", h.Attachment.Delete)
	}

	activities := api.Group("/activities")
	{
		activities.GET("/me", h.Activity.GetMyActivities)
		activities.GET("/:entityType/:id", h.Activity.GetEntityActivities)
	}

	assistant := api.Group("/assistant")
	{
		assistant.GET("/tools", h.Assistant.ListTools)
		if assistantLimit != nil {
			assistant.POST("/tools/:name", assistantLimit, h.Assistant.Dispatch)
		} else {
			assistant.POST("/tools/:name", h.Assistant.Dispatch)
		}
	}
}

// handleServiceError maps service errors to HTTP responses. Internal errors
// are attached to the context so the request logger records them.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Resource already exists"})
		return
	case errors.Is(err, service.ErrCreatorImmutable):
		c.JSON(http.StatusConflict, gin.H{"error": "The workspace creator cannot be removed or demoted"})
		return
	}

	switch authz.KindOf(err) {
	case authz.KindUnauthenticated:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case authz.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case authz.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case authz.KindValidation, authz.KindToolInputInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

func toWorkspaceResponse(ws *repository.Workspace) models.WorkspaceResponse {
	return models.WorkspaceResponse{
		ID:          ws.ID,
		Name:        ws.Name,
		Description: ws.Description,
		CreatorID:   ws.CreatorID,
		CreatedAt:   ws.CreatedAt,
		UpdatedAt:   ws.UpdatedAt,
	}
}

func toMemberResponse(m *repository.WorkspaceMember) models.MemberResponse {
	resp := models.MemberResponse{
		ID:          m.ID,
		WorkspaceID: m.WorkspaceID,
		UserID:      m.UserID,
		Role:        string(m.Role),
		Status:      m.Status,
		JoinedAt:    m.JoinedAt,
	}
	if m.User != nil {
		u := toUserResponse(m.User)
		resp.User = &u
	}
	return resp
}

func toProjectResponse(p *repository.Project) models.ProjectResponse {
	return models.ProjectResponse{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		Name:        p.Name,
		Key:         p.Key,
		Description: p.Description,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toActivityResponse(a *repository.Activity) models.ActivityResponse {
	return models.ActivityResponse{
		ID:         a.ID,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Action:     a.Action,
		UserID:     a.UserID,
		Changes:    a.Changes,
		CreatedAt:  a.CreatedAt,
	}
}

// mapList converts a repository slice, returning [] rather than null.
func mapList[T any, R any](items []T, fn func(T) R) []R {
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}

// orEmpty keeps JSON list responses as [] when the store returned nil.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
