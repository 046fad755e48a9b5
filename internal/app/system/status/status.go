// internal/app/system/status/status.go
package status

// Shared status values for users, stables, memberships, and organizations.
const (
	Active   = "active"
	Inactive = "inactive"
)
