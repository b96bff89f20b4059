package types

// Task Status values
const (
	StatusBacklog    = "backlog"
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusInReview   = "in_review"
	StatusDone       = "done"
	StatusCancelled  = "cancelled"
)

// Task Priority values
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
	PriorityNone   = "none"
)

// Bug Severity values
const (
	SeverityBlocker  = "blocker"
	SeverityCritical = "critical"
	SeverityMajor    = "major"
	SeverityMinor    = "minor"
	SeverityTrivial  = "trivial"
)

// Bug Status values
const (
	BugOpen       = "open"
	BugInProgress = "in_progress"
	BugResolved   = "resolved"
	BugClosed     = "closed"
	BugWontFix    = "wont_fix"
)

// Membership Status values
const (
	MemberActive  = "active"
	MemberInvited = "invited"
)

var ValidTaskStatuses = []string{
	StatusBacklog, StatusTodo, StatusInProgress,
	StatusInReview, StatusDone, StatusCancelled,
}

var ValidPriorities = []string{
	PriorityUrgent, PriorityHigh, PriorityMedium,
	PriorityLow, PriorityNone,
}

var ValidSeverities = []string{
	SeverityBlocker, SeverityCritical, SeverityMajor, SeverityMinor, SeverityTrivial,
}

var ValidBugStatuses = []string{
	BugOpen, BugInProgress, BugResolved, BugClosed, BugWontFix,
}

func IsValidTaskStatus(status string) bool {
	return contains(ValidTaskStatuses, status)
}

func IsValidPriority(priority string) bool {
	return contains(ValidPriorities, priority)
}

func IsValidSeverity(severity string) bool {
	return contains(ValidSeverities, severity)
}

func IsValidBugStatus(status string) bool {
	return contains(ValidBugStatuses, status)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
