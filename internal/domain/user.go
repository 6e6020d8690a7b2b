package domain

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleApprover Role = "APPROVER"
	RoleEmployee Role = "EMPLOYEE"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleApprover, RoleEmployee:
		return Role(s), true
	default:
		return "", false
	}
}

type User struct {
	ID    int64
	Name  string
	Email string
	Role  Role
	// ApprovalLevel is set only for approvers listed in the approver directory.
	ApprovalLevel *int
}

func (u *User) IsAdmin() bool    { return u.Role == RoleAdmin }
func (u *User) IsApprover() bool { return u.Role == RoleApprover }
