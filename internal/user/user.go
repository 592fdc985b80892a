// Package user is the admin view of hospital staff accounts: the directory
// snapshot, the mutation gateway, the detail aggregator and their HTTP
// handlers. Account data is owned by the records API.
package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/user"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleDokter      Role = "dokter"
	RoleApoteker    Role = "apoteker"
	RoleKasir       Role = "kasir"
	RoleFrontOffice Role = "front_office"

	// DefaultRole is preselected on the create form.
	DefaultRole = RoleFrontOffice
)

var Roles = []Role{RoleAdmin, RoleDokter, RoleApoteker, RoleKasir, RoleFrontOffice}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

type User struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	Role           Role       `json:"role"`
	Specialization string     `json:"specialization,omitempty"`
	PhoneNumber    string     `json:"phone_number,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ShowsSpecialization reports whether the specialization field applies.
// Only doctors carry one.
func (u *User) ShowsSpecialization() bool {
	return u.Role == RoleDokter
}

type ActionType string

const (
	ActionLogin         ActionType = "login"
	ActionLogout        ActionType = "logout"
	ActionCreate        ActionType = "create"
	ActionUpdate        ActionType = "update"
	ActionDelete        ActionType = "delete"
	ActionPasswordReset ActionType = "password_reset"
	ActionStatusChange  ActionType = "status_change"
)

// ActivityLogEntry is one backend-recorded action. ActionType is open ended;
// the constants above are the values seen so far.
type ActivityLogEntry struct {
	ActionType  ActionType `json:"action_type"`
	Description string     `json:"description"`
	IPAddress   string     `json:"ip_address,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Stats struct {
	Appointments      int64 `json:"appointments"`
	Prescriptions     int64 `json:"prescriptions"`
	Transactions      int64 `json:"transactions"`
	LastMonthActivity int64 `json:"lastMonthActivity"`
}

func FromDataModel(r *userDatamodel.UserRecord) *User {
	u := &User{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		FullName:  r.FullName,
		Role:      Role(r.Role),
		IsActive:  r.IsActive,
		LastLogin: r.LastLogin,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Specialization != nil {
		u.Specialization = *r.Specialization
	}
	if r.PhoneNumber != nil {
		u.PhoneNumber = *r.PhoneNumber
	}
	return u
}

func fromDataModelList(records []userDatamodel.UserRecord) []User {
	users := make([]User, 0, len(records))
	for i := range records {
		users = append(users, *FromDataModel(&records[i]))
	}
	return users
}

func activityFromDataModel(entries []userDatamodel.ActivityLogEntry) []ActivityLogEntry {
	out := make([]ActivityLogEntry, 0, len(entries))
	for _, e := range entries {
		entry := ActivityLogEntry{
			ActionType:  ActionType(e.ActionType),
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		}
		if e.IPAddress != nil {
			entry.IPAddress = *e.IPAddress
		}
		out = append(out, entry)
	}
	return out
}

func statsFromDataModel(s *userDatamodel.UserStats) Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		Appointments:      s.Appointments,
		Prescriptions:     s.Prescriptions,
		Transactions:      s.Transactions,
		LastMonthActivity: s.LastMonthActivity,
	}
}
