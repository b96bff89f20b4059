package seed

import (
	"context"
	"fmt"

	"github.com/Marga-Ghale/ora-authz/internal/authz"
	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"github.com/Marga-Ghale/ora-authz/internal/types"
	"go.uber.org/zap"
)

// External ids of the seeded identities. Tokens minted for local testing use
// these as the subject.
const (
	AliceExternalID = "seed|alice"
	BobExternalID   = "seed|bob"
	CarolExternalID = "seed|carol"
)

// SeedData creates the development scenario:
//
//	Acme (Alice admin, Bob developer) with project "Website", task T assigned
//	to Bob, a bug and a design doc.
//	Globex (Carol creator) with project "Internal", which Alice and Bob
//	cannot see.
//
// It is skipped when Alice already exists.
func SeedData(ctx context.Context, repos *repository.Repositories, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("seed")

	existing, err := repos.UserRepo.FindByExternalID(ctx, AliceExternalID)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Info("data already exists, skipping")
		return nil
	}

	// ============================================
	// Users
	// ============================================
	alice := &repository.User{ExternalID: AliceExternalID, Email: "alice@acme.test", Name: "Alice Admin"}
	bob := &repository.User{ExternalID: BobExternalID, Email: "bob@acme.test", Name: "Bob Developer"}
	carol := &repository.User{ExternalID: CarolExternalID, Email: "carol@globex.test", Name: "Carol Outsider"}
	for _, u := range []*repository.User{alice, bob, carol} {
		if err := repos.UserRepo.Upsert(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	// ============================================
	// Workspace W: Alice admin, Bob developer
	// ============================================
	acme := &repository.Workspace{Name: "Acme", CreatorID: &alice.ID}
	if err := repos.WorkspaceRepo.Create(ctx, acme, authz.RoleWorkspaceAdmin); err != nil {
		return fmt.Errorf("seed workspace: %w", err)
	}
	if err := repos.WorkspaceRepo.AddMember(ctx, &repository.WorkspaceMember{
		WorkspaceID: acme.ID,
		UserID:      bob.ID,
		Role:        authz.RoleDeveloper,
		Status:      types.MemberActive,
	}); err != nil {
		return fmt.Errorf("seed member: %w", err)
	}

	website := &repository.Project{WorkspaceID: acme.ID, Name: "Website", Key: "WEB", CreatedBy: &alice.ID}
	if err := repos.ProjectRepo.Create(ctx, website); err != nil {
		return fmt.Errorf("seed project: %w", err)
	}

	task := &repository.Task{
		ProjectID:  website.ID,
		Title:      "Ship the landing page",
		Status:     types.StatusTodo,
		Priority:   types.PriorityHigh,
		AssigneeID: &bob.ID,
		ReporterID: &alice.ID,
		Labels:     []string{"frontend"},
	}
	if err := repos.TaskRepo.Create(ctx, task); err != nil {
		return fmt.Errorf("seed task: %w", err)
	}

	bug := &repository.Bug{
		ProjectID:  website.ID,
		Title:      "Hero image is blurry on retina",
		Severity:   types.SeverityMinor,
		Status:     types.BugOpen,
		ReporterID: &bob.ID,
	}
	if err := repos.BugRepo.Create(ctx, bug); err != nil {
		return fmt.Errorf("seed bug: %w", err)
	}

	doc := &repository.Document{ProjectID: website.ID, Title: "Design notes", Content: "Colors, type, grid.", CreatedBy: &alice.ID}
	if err := repos.DocumentRepo.Create(ctx, doc); err != nil {
		return fmt.Errorf("seed document: %w", err)
	}

	// ============================================
	// Workspace W2: Carol only
	// ============================================
	globex := &repository.Workspace{Name: "Globex", CreatorID: &carol.ID}
	if err := repos.WorkspaceRepo.Create(ctx, globex, authz.RoleWorkspaceCreator); err != nil {
		return fmt.Errorf("seed workspace: %w", err)
	}
	internal := &repository.Project{WorkspaceID: globex.ID, Name: "Internal", Key: "INT", CreatedBy: &carol.ID}
	if err := repos.ProjectRepo.Create(ctx, internal); err != nil {
		return fmt.Errorf("seed project: %w", err)
	}

	log.Info("seeded development data",
		zap.String("workspace", acme.ID),
		zap.String("project", website.ID),
		zap.String("task", task.ID),
		zap.String("outsider_workspace", globex.ID),
	)
	return nil
}
