package models

import "fmt"

type UserRole string

const (
	UserRoleGuest UserRole = "guest"
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case UserRoleGuest, UserRoleUser, UserRoleAdmin:
		return UserRole(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	switch ApprovalStatus(s) {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return ApprovalStatus(s), nil
	default:
		return "", fmt.Errorf("unknown approval status %q", s)
	}
}

// Principal is the opaque identity reference handed out by the identity provider.
type Principal string

func (p Principal) String() string {
	return string(p)
}

// Short renders the principal the way listings show it: first 8 and last 4 characters.
func (p Principal) Short() string {
	s := string(p)
	if len(s) <= 12 {
		return s
	}
	return s[:8] + "..." + s[len(s)-4:]
}

// Identity is the caller the session currently acts as. The zero value is anonymous.
type Identity struct {
	Principal Principal
	Token     string
	DeviceID  string
}

func (i Identity) IsAnonymous() bool {
	return i.Principal == ""
}

type UserProfile struct {
	Name string `json:"name"`
}

type UserInfo struct {
	Principal Principal      `json:"principal"`
	Role      UserRole       `json:"role"`
	Approval  ApprovalStatus `json:"approval"`
}
