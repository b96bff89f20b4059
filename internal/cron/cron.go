package cron

import (
	"context"
	"time"

	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MembershipAuditor is the slice of the workspace repository the audit reads.
type MembershipAuditor interface {
	FindInvalidRoles(ctx context.Context) ([]*repository.InvalidMembership, error)
}

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron     *cron.Cron
	auditor  MembershipAuditor
	schedule string
	log      *zap.Logger
}

// NewScheduler creates a new scheduler. schedule uses robfig/cron syntax,
// descriptors like "@hourly" included.
func NewScheduler(auditor MembershipAuditor, schedule string, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if schedule == "" {
		schedule = "@hourly"
	}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		auditor:  auditor,
		schedule: schedule,
		log:      log.Named("cron"),
	}
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.log.Debug("running membership role audit")
		s.AuditMemberships()
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("scheduler started", zap.String("membership_audit", s.schedule))
	return nil
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

// AuditMemberships reports membership rows whose stored role is outside the
// enumeration. Those rows already fail every authorization read; the audit
// surfaces them so an operator can repair them. It never rewrites a role.
func (s *Scheduler) AuditMemberships() int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := s.auditor.FindInvalidRoles(ctx)
	if err != nil {
		s.log.Error("membership audit failed", zap.Error(err))
		return 0
	}

	for _, m := range rows {
		s.log.Warn("membership has invalid role",
			zap.String("membership_id", m.ID),
			zap.String("workspace_id", m.WorkspaceID),
			zap.String("user_id", m.UserID),
			zap.String("role", m.Role),
		)
	}
	if len(rows) > 0 {
		s.log.Warn("membership audit found invalid roles", zap.Int("count", len(rows)))
	}
	return len(rows)
}
