package constants

import "time"

// Session and context keys
const (
	SessionCookieName   = "taskflow_session"
	SessionKeyUserID    = "uid"
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"

	ContextKeyOrganization       = "organization"
	ContextKeyOrganizationMember = "organization_member"
	ContextKeyProject            = "project"
	ContextKeyTask               = "task"
)

// Auth
const (
	MinPasswordLength = 8
	MaxUsernameLength = 50
	SessionMaxAge     = 86400 * 7
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Recovery
const (
	// RecoveryWindow is how long a soft-deleted record stays restorable.
	RecoveryWindow = 24 * time.Hour

	DefaultSweepInterval = time.Hour
)

// Limits
const (
	MaxAIGeneratedTasks = 20
	MaxBulkTaskIDs      = 100
	MaxNameLength       = 255
)

// DefaultColumnNames are created with every new project.
var DefaultColumnNames = []string{"To Do", "In Progress", "Done"}
