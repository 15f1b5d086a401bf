package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleManager     UserRole = "manager"
	RoleProcurement UserRole = "procurement"
	RoleAssetTeam   UserRole = "asset_team"
	RoleBranchOps   UserRole = "branch_ops"
	RoleAdmin       UserRole = "admin"
	RoleITTeam      UserRole = "it_team"
)

// Valid reports whether the role is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleManager, RoleProcurement, RoleAssetTeam, RoleBranchOps, RoleAdmin, RoleITTeam:
		return true
	}
	return false
}

// Permissions is the named-boolean permission set derived from a user's role.
type Permissions struct {
	CanCreateJobs        bool `db:"can_create_jobs" json:"canCreateJobs"`
	CanApproveJobs       bool `db:"can_approve_jobs" json:"canApproveJobs"`
	CanManageAssets      bool `db:"can_manage_assets" json:"canManageAssets"`
	CanViewReports       bool `db:"can_view_reports" json:"canViewReports"`
	CanManageUsers       bool `db:"can_manage_users" json:"canManageUsers"`
	CanProcessClearance  bool `db:"can_process_clearance" json:"canProcessClearance"`
	CanAccessProcurement bool `db:"can_access_procurement" json:"canAccessProcurement"`
}

// Value serialises the permission set for storage in a JSONB column.
func (p Permissions) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan restores the permission set from its stored JSONB form.
func (p *Permissions) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = Permissions{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported permissions column type %T", src)
	}
}

// PermissionsForRole recomputes the full permission set for a role. The result
// replaces any previously stored set; it is never merged.
func PermissionsForRole(role UserRole) Permissions {
	switch role {
	case RoleAdmin:
		return Permissions{
			CanCreateJobs:        true,
			CanApproveJobs:       true,
			CanManageAssets:      true,
			CanViewReports:       true,
			CanManageUsers:       true,
			CanProcessClearance:  true,
			CanAccessProcurement: true,
		}
	case RoleManager:
		return Permissions{CanCreateJobs: true, CanApproveJobs: true, CanViewReports: true}
	case RoleProcurement:
		return Permissions{CanAccessProcurement: true, CanViewReports: true}
	case RoleAssetTeam:
		return Permissions{CanManageAssets: true, CanProcessClearance: true, CanViewReports: true}
	case RoleBranchOps, RoleITTeam:
		return Permissions{CanViewReports: true}
	default:
		return Permissions{}
	}
}

// User represents an application user stored in the users table.
type User struct {
	ID            string      `db:"id" json:"id"`
	EmployeeID    *string     `db:"employee_id" json:"employee_id,omitempty"`
	Username      string      `db:"username" json:"username"`
	Email         string      `db:"email" json:"email"`
	PasswordHash  string      `db:"password_hash" json:"-"`
	FirstName     string      `db:"first_name" json:"first_name"`
	LastName      string      `db:"last_name" json:"last_name"`
	Role          UserRole    `db:"role" json:"role"`
	Department    string      `db:"department" json:"department,omitempty"`
	Designation   string      `db:"designation" json:"designation,omitempty"`
	Phone         string      `db:"phone" json:"phone,omitempty"`
	Permissions   Permissions `db:"permissions" json:"permissions"`
	Active        bool        `db:"active" json:"active"`
	LoginAttempts int         `db:"login_attempts" json:"login_attempts"`
	LockUntil     *time.Time  `db:"lock_until" json:"lock_until,omitempty"`
	LastLogin     *time.Time  `db:"last_login" json:"last_login,omitempty"`
	CreatedBy     *string     `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsLocked reports whether the account lockout is in effect at the given time.
// Lock state is derived from lock_until, never stored as a separate flag.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role       *UserRole
	Department string
	Active     *bool
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
