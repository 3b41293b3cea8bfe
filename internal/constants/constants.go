package constants

// Session and context keys
const (
	SessionCookieName = "task_session"
	ContextKeyUserID  = "user_id"
	ContextKeyTask    = "task"
)

// Password rules
const (
	MinPasswordLength = 8
)

// Pagination limits
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Post-login destinations decided by the profile-completeness gate
const (
	RedirectDashboard = "/dashboard"
	RedirectProfile   = "/profile"
	LoginPath         = "/login"
)
