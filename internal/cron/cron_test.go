package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/Marga-Ghale/ora-authz/internal/repository"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeAuditor struct {
	rows []*repository.InvalidMembership
	err  error
}

func (f *fakeAuditor) FindInvalidRoles(ctx context.Context) ([]*repository.InvalidMembership, error) {
	return f.rows, f.err
}

func TestAuditMemberships_LogsEachInvalidRow(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewScheduler(&fakeAuditor{rows: []*repository.InvalidMembership{
		{ID: "m1", WorkspaceID: "w1", UserID: "u1", Role: "OWNER"},
		{ID: "m2", WorkspaceID: "w1", UserID: "u2", Role: ""},
	}}, "", zap.New(core))

	if n := s.AuditMemberships(); n != 2 {
		t.Errorf("expected 2 invalid rows, got %d", n)
	}
	if got := logs.FilterMessage("membership has invalid role").Len(); got != 2 {
		t.Errorf("expected 2 row warnings, got %d", got)
	}
	entry := logs.FilterMessage("membership has invalid role").All()[0]
	if entry.ContextMap()["role"] != "OWNER" {
		t.Errorf("expected role field OWNER, got %v", entry.ContextMap()["role"])
	}
}

func TestAuditMemberships_CleanTableIsQuiet(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewScheduler(&fakeAuditor{}, "", zap.New(core))

	if n := s.AuditMemberships(); n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
	if logs.Len() != 0 {
		t.Errorf("expected no warnings, got %d", logs.Len())
	}
}

func TestAuditMemberships_StoreErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := NewScheduler(&fakeAuditor{err: errors.New("connection refused")}, "", zap.New(core))

	s.AuditMemberships()
	if logs.FilterMessage("membership audit failed").Len() != 1 {
		t.Error("expected the failure to be logged")
	}
}

func TestScheduler_RejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&fakeAuditor{}, "every tuesday-ish", nil)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Error("expected an error for an invalid schedule")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(&fakeAuditor{}, "@hourly", nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
