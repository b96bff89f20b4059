package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"github.com/Marga-Ghale/ora-authz/internal/service"
	"github.com/Marga-Ghale/ora-authz/internal/testutil"
	"github.com/Marga-Ghale/ora-authz/internal/tools"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeWorkspaces answers from a map and fails with err when set.
type fakeWorkspaces struct {
	service.WorkspaceService
	byID    map[string]*repository.Workspace
	err     error
	created []string
}

func (f *fakeWorkspaces) Create(ctx context.Context, userID, name string, description *string) (*repository.Workspace, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, name)
	return &repository.Workspace{ID: testutil.NewID(), Name: name, CreatorID: &userID, CreatedAt: time.Now()}, nil
}

func (f *fakeWorkspaces) GetByID(ctx context.Context, userID, id string) (*repository.Workspace, error) {
	if f.err != nil {
		return nil, f.err
	}
	ws, ok := f.byID[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return ws, nil
}

func (f *fakeWorkspaces) List(ctx context.Context, userID string) ([]*repository.Workspace, error) {
	return nil, f.err
}

type fakeMembers struct {
	service.MemberService
	invitedRole authz.Role
}

func (f *fakeMembers) Invite(ctx context.Context, userID, workspaceID, email string, role authz.Role) (*repository.WorkspaceMember, error) {
	f.invitedRole = role
	return &repository.WorkspaceMember{ID: testutil.NewID(), WorkspaceID: workspaceID, Role: role, Status: "active"}, nil
}

func (f *fakeMembers) Remove(ctx context.Context, userID, memberID string) error {
	return service.ErrCreatorImmutable
}

// newRouter mounts the real routes behind a middleware that plays the
// identity layer. An empty userID leaves the request unauthenticated.
func newRouter(h *Handlers, userID string) *gin.Engine {
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	})
	RegisterRoutes(api, h, nil)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleServiceError_StatusByKind(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{service.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("loading task: %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{service.ErrAssigneeNotMember, http.StatusBadRequest},
		{service.ErrConflict, http.StatusConflict},
		{service.ErrCreatorImmutable, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		handleServiceError(c, tc.err)
		if w.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, w.Code)
		}
	}
}

func TestHandleServiceError_InternalErrorIsNotLeaked(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	handleServiceError(c, errors.New("pq: relation tasks does not exist"))

	if strings.Contains(w.Body.String(), "pq:") {
		t.Errorf("expected a generic body, got %s", w.Body.String())
	}
	if len(c.Errors) != 1 {
		t.Errorf("expected the error to be attached for logging, got %d", len(c.Errors))
	}
}

func TestWorkspaceHandler_RequiresUser(t *testing.T) {
	h := &Handlers{Workspace: &WorkspaceHandler{workspaceService: &fakeWorkspaces{}}}
	r := newRouter(fullHandlers(h), "")

	w := do(r, http.MethodGet, "/api/workspaces", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestWorkspaceHandler_CreateValidatesBody(t *testing.T) {
	ws := &fakeWorkspaces{}
	h := fullHandlers(&Handlers{Workspace: &WorkspaceHandler{workspaceService: ws}})
	r := newRouter(h, testutil.NewID())

	w := do(r, http.MethodPost, "/api/workspaces", `{"description":"no name"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if len(ws.created) != 0 {
		t.Error("expected the service not to be called")
	}

	w = do(r, http.MethodPost, "/api/workspaces", `{"name":"Acme"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["name"] != "Acme" {
		t.Errorf("expected name Acme, got %v", body["name"])
	}
}

func TestWorkspaceHandler_ListIsNeverNull(t *testing.T) {
	h := fullHandlers(&Handlers{Workspace: &WorkspaceHandler{workspaceService: &fakeWorkspaces{}}})
	r := newRouter(h, testutil.NewID())

	w := do(r, http.MethodGet, "/api/workspaces", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected [], got %s", w.Body.String())
	}
}

func TestWorkspaceHandler_GetMissingIs404(t *testing.T) {
	h := fullHandlers(&Handlers{Workspace: &WorkspaceHandler{workspaceService: &fakeWorkspaces{}}})
	r := newRouter(h, testutil.NewID())

	w := do(r, http.MethodGet, "/api/workspaces/"+testutil.NewID(), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRoutes_MalformedIDsAre400(t *testing.T) {
	ws := &fakeWorkspaces{err: errors.New("store must not be reached")}
	h := fullHandlers(&Handlers{Workspace: &WorkspaceHandler{workspaceService: ws}})
	r := newRouter(h, testutil.NewID())

	cases := []struct{ method, path, body string }{
		{http.MethodGet, "/api/workspaces/abc", ""},
		{http.MethodGet, "/api/tasks/abc", ""},
		{http.MethodDelete, "/api/members/1;drop", ""},
		{http.MethodGet, "/api/activities/task/abc", ""},
		{http.MethodGet, "/api/projects?workspaceId=abc", ""},
		{http.MethodPut, "/api/tasks/" + testutil.NewID() + "/assignee", `{"assigneeId":"abc"}`},
	}
	for _, tc := range cases {
		w := do(r, tc.method, tc.path, tc.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s %s: expected 400, got %d: %s", tc.method, tc.path, w.Code, w.Body.String())
		}
	}
}

func TestMemberHandler_InviteRejectsUnknownRole(t *testing.T) {
	members := &fakeMembers{}
	h := fullHandlers(&Handlers{Member: &MemberHandler{memberService: members}})
	r := newRouter(h, testutil.NewID())
	path := "/api/workspaces/" + testutil.NewID() + "/members"

	w := do(r, http.MethodPost, path, `{"email":"bob@example.com","role":"OWNER"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown role, got %d", w.Code)
	}

	w = do(r, http.MethodPost, path, `{"email":"bob@example.com","role":"DEVELOPER"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if members.invitedRole != authz.RoleDeveloper {
		t.Errorf("expected DEVELOPER, got %s", members.invitedRole)
	}
}

func TestMemberHandler_RemoveCreatorIsConflict(t *testing.T) {
	h := fullHandlers(&Handlers{Member: &MemberHandler{memberService: &fakeMembers{}}})
	r := newRouter(h, testutil.NewID())

	w := do(r, http.MethodDelete, "/api/members/"+testutil.NewID(), "")
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestActivityHandler_RejectsUnknownEntityType(t *testing.T) {
	h := fullHandlers(&Handlers{})
	r := newRouter(h, testutil.NewID())

	w := do(r, http.MethodGet, "/api/activities/sprint/"+testutil.NewID(), "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ============================================
// Assistant
// ============================================

func newAssistant(t *testing.T) (*Handlers, *testutil.MemStore, string, string, string) {
	t.Helper()
	store := testutil.NewMemStore()
	alice, carol := testutil.NewID(), testutil.NewID()
	w := store.AddWorkspace()
	store.AddMember(w, alice, authz.RoleWorkspaceAdmin)
	project := store.AddProject(w)

	engine := authz.NewEngine(store, nil)
	gateway, err := tools.NewGateway(engine, nil, tools.Tool{
		Name:     "getProject",
		Resource: authz.ResourceProject,
		Action:   authz.ActionRead,
		Target: func(a tools.Args) (authz.Context, error) {
			id, err := a.ID("projectId")
			if err != nil {
				return authz.Context{}, err
			}
			return authz.On(authz.ResourceProject, id), nil
		},
		Run: func(ctx context.Context, c tools.Call) (interface{}, error) {
			id, _ := c.Args.String("projectId")
			return map[string]string{"id": id}, nil
		},
	})
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	return fullHandlers(&Handlers{Assistant: &AssistantHandler{gateway: gateway}}), store, alice, carol, project
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) tools.Result {
	t.Helper()
	var res tools.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v (%s)", err, w.Body.String())
	}
	return res
}

func TestAssistantHandler_ListTools(t *testing.T) {
	h, _, alice, _, _ := newAssistant(t)
	r := newRouter(h, alice)

	w := do(r, http.MethodGet, "/api/assistant/tools", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var decls []tools.Declaration
	if err := json.Unmarshal(w.Body.Bytes(), &decls); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decls) != 1 || decls[0].Name != "getProject" {
		t.Errorf("expected [getProject], got %+v", decls)
	}
}

func TestAssistantHandler_DispatchMember(t *testing.T) {
	h, _, alice, _, project := newAssistant(t)
	r := newRouter(h, alice)

	w := do(r, http.MethodPost, "/api/assistant/tools/getProject", `{"args":{"projectId":"`+project+`"}}`)
	res := decodeResult(t, w)
	if res.Status != tools.StatusSuccess {
		t.Errorf("expected success, got %s (%s)", res.Status, res.Message)
	}
}

func TestAssistantHandler_DispatchOutsiderGetsGenericDenial(t *testing.T) {
	h, _, _, carol, project := newAssistant(t)
	r := newRouter(h, carol)

	w := do(r, http.MethodPost, "/api/assistant/tools/getProject", `{"args":{"projectId":"`+project+`"}}`)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with a result body, got %d", w.Code)
	}
	res := decodeResult(t, w)
	if res.Status != tools.StatusForbidden {
		t.Errorf("expected forbidden, got %s", res.Status)
	}
	if res.Message != tools.MessageForbidden || res.Data != nil {
		t.Errorf("expected only the generic message, got %+v", res)
	}
}

func TestAssistantHandler_DispatchWithoutBody(t *testing.T) {
	h, store, alice, _, _ := newAssistant(t)
	r := newRouter(h, alice)

	before := store.Calls()
	w := do(r, http.MethodPost, "/api/assistant/tools/getProject", "")
	res := decodeResult(t, w)
	if res.Status != tools.StatusInputInvalid {
		t.Errorf("expected input_invalid, got %s", res.Status)
	}
	if store.Calls() != before {
		t.Error("expected no store reads for invalid input")
	}
}

// fullHandlers fills every handler the routes reference so RegisterRoutes can
// mount them; unset services panic only if a test hits them.
type fakeUsers struct {
	service.UserService
	users map[string]*repository.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*repository.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, service.ErrNotFound
}

func TestUserHandler_GetCurrentUser(t *testing.T) {
	alice := testutil.NewID()
	users := &fakeUsers{users: map[string]*repository.User{
		alice: {ID: alice, Email: "alice@example.com", Name: "Alice"},
	}}
	h := fullHandlers(&Handlers{User: &UserHandler{userService: users}})

	w := do(newRouter(h, alice), http.MethodGet, "/api/users/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != alice || body["email"] != "alice@example.com" {
		t.Errorf("unexpected body %v", body)
	}

	if w := do(newRouter(h, testutil.NewID()), http.MethodGet, "/api/users/me", ""); w.Code != http.StatusNotFound {
		t.Errorf("deleted user: expected 404, got %d", w.Code)
	}
	if w := do(newRouter(h, ""), http.MethodGet, "/api/users/me", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", w.Code)
	}
}

func fullHandlers(h *Handlers) *Handlers {
	if h.User == nil {
		h.User = &UserHandler{}
	}
	if h.Workspace == nil {
		h.Workspace = &WorkspaceHandler{}
	}
	if h.Member == nil {
		h.Member = &MemberHandler{}
	}
	if h.Project == nil {
		h.Project = &ProjectHandler{}
	}
	if h.Task == nil {
		h.Task = &TaskHandler{}
	}
	if h.Bug == nil {
		h.Bug = &BugHandler{}
	}
	if h.Document == nil {
		h.Document = &DocumentHandler{}
	}
	if h.Comment == nil {
		h.Comment = &CommentHandler{}
	}
	if h.Attachment == nil {
		h.Attachment = &AttachmentHandler{}
	}
	if h.Activity == nil {
		h.Activity = &ActivityHandler{}
	}
	if h.Assistant == nil {
		h.Assistant = &AssistantHandler{}
	}
	return h
}
