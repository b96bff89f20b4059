package tools

import (
	"context"
	"testing"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/testutil"
)

// stubbed replaces every Run so declarations can be exercised without a
// database.
func stubbed(tools []Tool) []Tool {
	out := make([]Tool, len(tools))
	for i, t := range tools {
		t.Run = func(ctx context.Context, c Call) (interface{}, error) { return "ok", nil }
		out[i] = t
	}
	return out
}

func TestCatalog_Declarations(t *testing.T) {
	tools := Catalog(Deps{})
	if len(tools) != 20 {
		t.Errorf("expected 20 tools, got %d", len(tools))
	}
	seen := map[string]bool{}
	for _, tool := range tools {
		if seen[tool.Name] {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		seen[tool.Name] = true
		if _, err := authz.ParseResource(string(tool.Resource)); err != nil {
			t.Errorf("%s: bad resource %q", tool.Name, tool.Resource)
		}
		if _, err := authz.ParseAction(string(tool.Action)); err != nil {
			t.Errorf("%s: bad action %q", tool.Name, tool.Action)
		}
		if tool.Scope == ScopeEntity && tool.Target == nil && tool.Action != authz.ActionCreate {
			t.Errorf("%s: entity tool without a target", tool.Name)
		}
		if tool.Description == "" {
			t.Errorf("%s: missing description", tool.Name)
		}
	}
	for _, name := range []string{"updateTaskStatus", "listProjects", "removeMember", "reportBug"} {
		if !seen[name] {
			t.Errorf("expected catalog to contain %s", name)
		}
	}
}

// parityArgs supplies valid arguments for every catalog tool against the world.
func parityArgs(w *world) map[string]Args {
	comment := w.store.AddComment(w.t)
	doc := w.store.AddDocument(w.p)
	bug := w.store.AddBug(w.p, nil, w.bob)
	return map[string]Args{
		"listWorkspaces":   {},
		"createWorkspace":  {"name": "New"},
		"listProjects":     {"workspaceId": w.w},
		"getProject":       {"projectId": w.p},
		"createProject":    {"workspaceId": w.w, "name": "P", "key": "P"},
		"listTasks":        {"projectId": w.p},
		"getTask":          {"taskId": w.t},
		"createTask":       {"projectId": w.p, "title": "x"},
		"updateTaskStatus": {"taskId": w.t, "status": "done"},
		"assignTask":       {"taskId": w.t, "assigneeId": w.alice},
		"deleteTask":       {"taskId": w.t},
		"reportBug":        {"projectId": w.p, "title": "x"},
		"updateBugStatus":  {"bugId": bug, "status": "closed"},
		"getDocument":      {"documentId": doc},
		"updateDocument":   {"documentId": doc, "title": "x"},
		"listComments":     {"taskId": w.t},
		"addComment":       {"taskId": w.t, "content": "hi"},
		"listAttachments":  {"commentId": comment},
		"inviteMember":     {"workspaceId": w.w, "email": "x@example.com", "role": "DEVELOPER"},
		"removeMember":     {"memberId": w.bobMem},
	}
}

// The gateway answers forbidden exactly when the engine says no.
func TestCatalog_DispatchParityWithEngine(t *testing.T) {
	w := newWorld()
	tools := stubbed(Catalog(Deps{}))
	g := newGateway(t, w, tools...)
	args := parityArgs(w)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, tool := range tools {
		a, ok := args[tool.Name]
		if !ok {
			t.Fatalf("no parity args for %s", tool.Name)
		}
		target := authz.Context{}
		if tool.Target != nil {
			var err error
			if target, err = tool.Target(a); err != nil {
				t.Fatalf("%s: target: %v", tool.Name, err)
			}
		}
		for _, user := range []string{w.alice, w.bob, w.carol} {
			res := g.Dispatch(ctx, tool.Name, a, user)
			if tool.Scope == ScopeMemberships && target.EntityID == "" {
				if res.Status != StatusSuccess {
					t.Errorf("%s: list dispatch should succeed, got %s", tool.Name, res.Status)
				}
				continue
			}
			can, err := w.engine.Can(ctx, user, tool.Resource, tool.Action, target)
			if err != nil {
				t.Fatalf("%s: Can: %v", tool.Name, err)
			}
			if forbidden := res.Status == StatusForbidden; forbidden == can {
				t.Errorf("%s as %s: can=%v but dispatch status %s", tool.Name, user, can, res.Status)
			}
		}
	}
}

func TestCatalog_BobScenario(t *testing.T) {
	w := newWorld()
	g := newGateway(t, w, stubbed(Catalog(Deps{}))...)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if res := g.Dispatch(ctx, "updateTaskStatus", Args{"taskId": w.t, "status": "done"}, w.bob); res.Status != StatusSuccess {
		t.Errorf("assignee status update: expected success, got %s", res.Status)
	}
	if res := g.Dispatch(ctx, "deleteTask", Args{"taskId": w.t}, w.bob); res.Status != StatusForbidden {
		t.Errorf("developer delete: expected forbidden, got %s", res.Status)
	}
	if res := g.Dispatch(ctx, "removeMember", Args{"memberId": w.bobMem}, w.bob); res.Status != StatusForbidden {
		t.Errorf("self removal: expected forbidden, got %s", res.Status)
	}
	if res := g.Dispatch(ctx, "getTask", Args{"taskId": w.t}, w.carol); res.Status != StatusForbidden {
		t.Errorf("cross-tenant read: expected forbidden, got %s", res.Status)
	}
}

func TestArgs_OptionalID(t *testing.T) {
	id := testutil.NewID()
	got, err := Args{"x": id}.OptionalID("x")
	if err != nil || got == nil || *got != id {
		t.Errorf("expected %s, got %v (%v)", id, got, err)
	}
	if got, err := (Args{"x": nil}).OptionalID("x"); err != nil || got != nil {
		t.Errorf("expected nil for null, got %v (%v)", got, err)
	}
	if _, err := (Args{"x": "nope"}).OptionalID("x"); authz.KindOf(err) != authz.KindToolInputInvalid {
		t.Errorf("expected tool input error, got %v", err)
	}
	if _, err := (Args{"x": 7}).OptionalID("x"); err == nil {
		t.Error("expected non-string id to be rejected")
	}
}

func TestArgs_Role(t *testing.T) {
	if role, err := (Args{"role": " developer "}).Role("role"); err != nil || role != authz.RoleDeveloper {
		t.Errorf("expected DEVELOPER, got %q (%v)", role, err)
	}
	if _, err := (Args{"role": "OWNER"}).Role("role"); authz.KindOf(err) != authz.KindToolInputInvalid {
		t.Errorf("expected tool input error, got %v", err)
	}
}
