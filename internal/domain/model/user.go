package model

const (
	RoleMasterAdmin  = "master_admin"
	RoleCollegeAdmin = "college_admin"
	RoleFaculty      = "faculty"
	RoleStudent      = "student"
)

// IsStaff reports whether role may author questions and see hidden test cases.
func IsStaff(role string) bool {
	switch role {
	case RoleMasterAdmin, RoleCollegeAdmin, RoleFaculty:
		return true
	}
	return false
}

// IsAdmin reports whether role can act on questions it does not own.
func IsAdmin(role string) bool {
	return role == RoleMasterAdmin || role == RoleCollegeAdmin
}

// Principal is the authenticated caller, as carried by the bearer token.
type Principal struct {
	UserID string
	Role   string
	Email  string
	Name   string
}
