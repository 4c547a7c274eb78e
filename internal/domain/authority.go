package domain

import "strings"

// Role labels. The role set is closed: each label is bound to exactly one
// boolean column on User.
const (
	RoleManager     = "manager"
	RoleTaskManager = "task-manager"
	RoleDataManager = "data-manager"
)

// Roles lists every known role in canonical order.
var Roles = []string{RoleManager, RoleTaskManager, RoleDataManager}

// RoleColumns maps role labels to their users-table column names.
var RoleColumns = map[string]string{
	RoleManager:     "manager",
	RoleTaskManager: "task_mgr",
	RoleDataManager: "data_mgr",
}

// HasRole reads the flag bound to role; unknown roles are never held.
func (u *User) HasRole(role string) bool {
	switch role {
	case RoleManager:
		return u.Manager
	case RoleTaskManager:
		return u.TaskMgr
	case RoleDataManager:
		return u.DataMgr
	}
	return false
}

// Authority reconstructs the effective role set from the stored flags, in
// canonical order. It is recomputed on every fetch, never cached.
func (u *User) Authority() []string {
	out := make([]string, 0, len(Roles))
	for _, r := range Roles {
		if u.HasRole(r) {
			out = append(out, r)
		}
	}
	return out
}

// GrantAll sets every role flag; used by the first-user bootstrap.
func (u *User) GrantAll() {
	u.Manager, u.TaskMgr, u.DataMgr = true, true, true
}

// AuthorityString is the canonical serialization hashed into the session
// integrity tag.
func AuthorityString(roles []string) string {
	held := make(map[string]bool, len(roles))
	for _, r := range roles {
		held[r] = true
	}
	var b strings.Builder
	for _, r := range Roles {
		if held[r] {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(r)
		}
	}
	return b.String()
}

// HoldsRole reports whether roles contains role.
func HoldsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
