package types

import "testing"

func TestIsValidTaskStatus(t *testing.T) {
	for _, s := range ValidTaskStatuses {
		if !IsValidTaskStatus(s) {
			t.Errorf("expected %q to be a valid task status", s)
		}
	}
	if IsValidTaskStatus("DONE") {
		t.Error("expected status matching to be case-sensitive")
	}
	if IsValidTaskStatus("") {
		t.Error("expected empty status to be invalid")
	}
}

func TestIsValidBugFields(t *testing.T) {
	if !IsValidSeverity(SeverityMajor) || IsValidSeverity("huge") {
		t.Error("severity validation mismatch")
	}
	if !IsValidBugStatus(BugWontFix) || IsValidBugStatus(StatusBacklog) {
		t.Error("bug status validation mismatch")
	}
	if !IsValidPriority(PriorityNone) || IsValidPriority("p0") {
		t.Error("priority validation mismatch")
	}
}
