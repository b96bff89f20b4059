package models

import "time"

// ============================================
// User DTOs
// ============================================

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    *string   `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ============================================
// Workspace DTOs
// ============================================

type CreateWorkspaceRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=120"`
	Description *string `json:"description,omitempty"`
}

type UpdateWorkspaceRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=1,max=120"`
	Description *string `json:"description,omitempty"`
}

type WorkspaceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatorID   *string   `json:"creatorId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ============================================
// Member DTOs
// ============================================

type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type MemberResponse struct {
	ID          string        `json:"id"`
	WorkspaceID string        `json:"workspaceId"`
	UserID      string        `json:"userId"`
	Role        string        `json:"role"`
	Status      string        `json:"status"`
	JoinedAt    time.Time     `json:"joinedAt"`
	User        *UserResponse `json:"user,omitempty"`
}

// ============================================
// Project DTOs
// ============================================

type CreateProjectRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=120"`
	Key         string  `json:"key" binding:"required,min=1,max=10"`
	Description *string `json:"description,omitempty"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Key         *string `json:"key,omitempty" binding:"omitempty,min=1,max=10"`
	Description *string `json:"description,omitempty"`
}

type ProjectResponse struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	Key         string    `json:"key"`
	Description *string   `json:"description,omitempty"`
	CreatedBy   *string   `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ============================================
// Task DTOs
// ============================================

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,min=1"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	AssigneeID  *string    `json:"assigneeId,omitempty" binding:"omitempty,uuid"`
	Labels      []string   `json:"labels,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AssignRequest clears the assignee when AssigneeID is null.
type AssignRequest struct {
	AssigneeID *string `json:"assigneeId" binding:"omitempty,uuid"`
}

// ============================================
// Bug DTOs
// ============================================

type ReportBugRequest struct {
	Title       string  `json:"title" binding:"required,min=1"`
	Description *string `json:"description,omitempty"`
	Severity    string  `json:"severity,omitempty"`
}

// ============================================
// Document DTOs
// ============================================

type CreateDocumentRequest struct {
	Title   string `json:"title" binding:"required,min=1"`
	Content string `json:"content"`
}

type UpdateDocumentRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// ============================================
// Comment & Attachment DTOs
// ============================================

type CommentRequest struct {
	Content string `json:"content" binding:"required,min=1"`
}

type CreateAttachmentRequest struct {
	Name     string  `json:"name" binding:"required"`
	URL      string  `json:"url" binding:"required,url"`
	Size     int64   `json:"size" binding:"gte=0"`
	MimeType *string `json:"mimeType,omitempty"`
}

// ============================================
// Activity & Assistant DTOs
// ============================================

type ActivityResponse struct {
	ID         string                 `json:"id"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	Action     string                 `json:"action"`
	UserID     string                 `json:"userId"`
	Changes    map[string]interface{} `json:"changes,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}

type DispatchRequest struct {
	Args map[string]interface{} `json:"args"`
}
