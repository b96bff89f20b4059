package tools

import (
	"context"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"github.com/Marga-Ghale/ora-authz/internal/service"
)

// Deps are what the catalog's tools execute against. Entity tools go through
// the services; membership-scoped lists read the repositories with the
// workspace set the gateway computed.
type Deps struct {
	Services *service.Services
	Repos    *repository.Repositories
}

// entity builds a Target that reads one id argument.
func entity(resource authz.Resource, key string) func(Args) (authz.Context, error) {
	return func(a Args) (authz.Context, error) {
		id, err := a.ID(key)
		if err != nil {
			return authz.Context{}, err
		}
		return authz.On(resource, id), nil
	}
}

// optionalEntity narrows a membership-scoped list to one container when the
// id argument is given.
func optionalEntity(resource authz.Resource, key string) func(Args) (authz.Context, error) {
	return func(a Args) (authz.Context, error) {
		id, err := a.OptionalID(key)
		if err != nil || id == nil {
			return authz.Context{}, err
		}
		return authz.On(resource, *id), nil
	}
}

// mustID re-reads an id argument inside Run; Target has already validated it.
func mustID(a Args, key string) string {
	id, _ := a.ID(key)
	return id
}

func Catalog(d Deps) []Tool {
	return []Tool{
		// ============================================
		// Workspaces
		// ============================================
		{
			Name:        "listWorkspaces",
			Description: "List the workspaces you belong to.",
			Resource:    authz.ResourceWorkspace,
			Action:      authz.ActionRead,
			Scope:       ScopeMemberships,
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				return d.Repos.WorkspaceRepo.FindByIDs(ctx, c.Workspaces)
			},
		},
		{
			Name:        "createWorkspace",
			Description: "Create a new workspace. Args: name, description?",
			Resource:    authz.ResourceWorkspace,
			Action:      authz.ActionCreate,
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				name, err := c.Args.RequiredString("name")
				if err != nil {
					return nil, err
				}
				return d.Services.Workspace.Create(ctx, c.UserID, name, c.Args.OptionalString("description"))
			},
		},

		// ============================================
		// Projects
		// ============================================
		{
			Name:        "listProjects",
			Description: "List projects, optionally in one workspace. Args: workspaceId?",
			Resource:    authz.ResourceProject,
			Action:      authz.ActionRead,
			Scope:       ScopeMemberships,
			Target:      optionalEntity(authz.ResourceWorkspace, "workspaceId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				if id, _ := c.Args.OptionalID("workspaceId"); id != nil {
					return d.Repos.ProjectRepo.FindByWorkspaceIDs(ctx, []string{*id})
				}
				return d.Repos.ProjectRepo.FindByWorkspaceIDs(ctx, c.Workspaces)
			},
		},
		{
			Name:        "getProject",
			Description: "Show one project. Args: projectId",
			Resource:    authz.ResourceProject,
			Action:      authz.ActionRead,
			Target:      entity(authz.ResourceProject, "projectId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				return d.Services.Project.GetByID(ctx, c.UserID, mustID(c.Args, "projectId"))
			},
		},
		{
			Name:        "createProject",
			Description: "Create a project in a workspace. Args: workspaceId, name, key, description?",
			Resource:    authz.ResourceProject,
			Action:      authz.ActionCreate,
			Target:      entity(authz.ResourceWorkspace, "workspaceId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				name, err := c.Args.RequiredString("name")
				if err != nil {
					return nil, err
				}
				key, err := c.Args.RequiredString("key")
				if err != nil {
					return nil, err
				}
				return d.Services.Project.Create(ctx, c.UserID, mustID(c.Args, "workspaceId"), name, key, c.Args.OptionalString("description"))
			},
		},

		// ============================================
		// Tasks
		// ============================================
		{
			Name:        "listTasks",
			Description: "List tasks, optionally in one project. Args: projectId?",
			Resource:    authz.ResourceTask,
			Action:      authz.ActionRead,
			Scope:       ScopeMemberships,
			Target:      optionalEntity(authz.ResourceProject, "projectId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				if id, _ := c.Args.OptionalID("projectId"); id != nil {
					return d.Repos.TaskRepo.FindByProjectID(ctx, *id)
				}
				return d.Repos.TaskRepo.FindByWorkspaceIDs(ctx, c.Workspaces)
			},
		},
		{
			Name:        "getTask",
			Description: "Show one task. Args: taskId",
			Resource:    authz.ResourceTask,
			Action:      authz.ActionRead,
			Target:      entity(authz.ResourceTask, "taskId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				return d.Services.Task.GetByID(ctx, c.UserID, mustID(c.Args, "taskId"))
			},
		},
		{
			Name:        "createTask",
			Description: "Create a task in a project. Args: projectId, title, description?, priority?",
			Resource:    authz.ResourceTask,
			Action:      authz.ActionCreate,
			Target:      entity(authz.ResourceProject, "projectId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				title, err := c.Args.RequiredString("title")
				if err != nil {
					return nil, err
				}
				priority, _ := c.Args.String("priority")
				return d.Services.Task.Create(ctx, c.UserID, service.CreateTaskInput{
					ProjectID:   mustID(c.Args, "projectId"),
					Title:       title,
					Description: c.Args.OptionalString("description"),
					Priority:    priority,
				})
			},
		},
		{
			Name:        "updateTaskStatus",
			Description: "Move a task to another status. Args: taskId, status",
			Resource:    authz.ResourceTask,
			Action:      authz.ActionUpdate,
			Target:      entity(authz.ResourceTask, "taskId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				status, err := c.Args.RequiredString("status")
				if err != nil {
					return nil, err
				}
				return d.Services.Task.UpdateStatus(ctx, c.UserID, mustID(c.Args, "taskId"), status)
			},
		},
		{
			Name:        "assignTask",
			Description: "Assign a task, or unassign it when assigneeId is empty. Args: taskId, assigneeId?",
			Resource:    authz.ResourceTask,
			Action:      authz.ActionAssign,
			Target:      entity(authz.ResourceTask, "taskId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				assignee, err := c.Args.OptionalID("assigneeId")
				if err != nil {
					return nil, err
				}
				return d.Services.Task.Assign(ctx, c.UserID, mustID(c.Args, "taskId"), assignee)
			},
		},
		{
			Name:        "deleteTask",
			Description: "Delete a task. Args: taskId",
			Resource:    authz.ResourceTask,
			Action:      authz.ActionDelete,
			Target:      entity(authz.ResourceTask, "taskId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				id := mustID(c.Args, "taskId")
				if err := d.Services.Task.Delete(ctx, c.UserID, id); err != nil {
					return nil, err
				}
				return map[string]string{"deleted": id}, nil
			},
		},

		// ============================================
		// Bugs
		// ============================================
		{
			Name:        "reportBug",
			Description: "Report a bug in a project. Args: projectId, title, description?, severity?",
			Resource:    authz.ResourceBug,
			Action:      authz.ActionCreate,
			Target:      entity(authz.ResourceProject, "projectId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				title, err := c.Args.RequiredString("title")
				if err != nil {
					return nil, err
				}
				severity, _ := c.Args.String("severity")
				return d.Services.Bug.Report(ctx, c.UserID, mustID(c.Args, "projectId"), title, c.Args.OptionalString("description"), severity)
			},
		},
		{
			Name:        "updateBugStatus",
			Description: "Change a bug's status. Args: bugId, status",
			Resource:    authz.ResourceBug,
			Action:      authz.ActionUpdate,
			Target:      entity(authz.ResourceBug, "bugId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				status, err := c.Args.RequiredString("status")
				if err != nil {
					return nil, err
				}
				return d.Services.Bug.UpdateStatus(ctx, c.UserID, mustID(c.Args, "bugId"), status)
			},
		},

		// ============================================
		// Documents
		// ============================================
		{
			Name:        "getDocument",
			Description: "Show one document. Args: documentId",
			Resource:    authz.ResourceDocument,
			Action:      authz.ActionRead,
			Target:      entity(authz.ResourceDocument, "documentId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				return d.Services.Document.GetByID(ctx, c.UserID, mustID(c.Args, "documentId"))
			},
		},
		{
			Name:        "updateDocument",
			Description: "Edit a document. Args: documentId, title?, content?",
			Resource:    authz.ResourceDocument,
			Action:      authz.ActionUpdate,
			Target:      entity(authz.ResourceDocument, "documentId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				title := c.Args.OptionalString("title")
				content := c.Args.OptionalString("content")
				if title == nil && content == nil {
					return nil, invalidArg("title or content", "is required")
				}
				return d.Services.Document.Update(ctx, c.UserID, mustID(c.Args, "documentId"), title, content)
			},
		},

		// ============================================
		// Comments & attachments
		// ============================================
		{
			Name:        "listComments",
			Description: "List the comments on a task. Args: taskId",
			Resource:    authz.ResourceComment,
			Action:      authz.ActionRead,
			Target:      entity(authz.ResourceTask, "taskId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				return d.Services.Comment.ListByTask(ctx, c.UserID, mustID(c.Args, "taskId"))
			},
		},
		{
			Name:        "addComment",
			Description: "Comment on a task. Args: taskId, content",
			Resource:    authz.ResourceComment,
			Action:      authz.ActionCreate,
			Target:      entity(authz.ResourceTask, "taskId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				content, err := c.Args.RequiredString("content")
				if err != nil {
					return nil, err
				}
				return d.Services.Comment.Create(ctx, c.UserID, mustID(c.Args, "taskId"), content)
			},
		},
		{
			Name:        "listAttachments",
			Description: "List the files attached to a comment. Args: commentId",
			Resource:    authz.ResourceAttachment,
			Action:      authz.ActionRead,
			Target:      entity(authz.ResourceComment, "commentId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				return d.Services.Attachment.ListByComment(ctx, c.UserID, mustID(c.Args, "commentId"))
			},
		},

		// ============================================
		// Members
		// ============================================
		{
			Name:        "inviteMember",
			Description: "Add a user to a workspace by email. Args: workspaceId, email, role",
			Resource:    authz.ResourceMember,
			Action:      authz.ActionInvite,
			Target:      entity(authz.ResourceWorkspace, "workspaceId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				email, err := c.Args.RequiredString("email")
				if err != nil {
					return nil, err
				}
				role, err := c.Args.Role("role")
				if err != nil {
					return nil, err
				}
				return d.Services.Member.Invite(ctx, c.UserID, mustID(c.Args, "workspaceId"), email, role)
			},
		},
		{
			Name:        "removeMember",
			Description: "Remove someone else from a workspace. Args: memberId",
			Resource:    authz.ResourceMember,
			Action:      authz.ActionRemoveMember,
			Target:      entity(authz.ResourceMember, "memberId"),
			Run: func(ctx context.Context, c Call) (interface{}, error) {
				id := mustID(c.Args, "memberId")
				if err := d.Services.Member.Remove(ctx, c.UserID, id); err != nil {
					return nil, err
				}
				return map[string]string{"removed": id}, nil
			},
		},
	}
}
