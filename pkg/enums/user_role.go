package enums

import (
	"fmt"
	"strings"
)

// UserRole gates the staff dashboard.
type UserRole string

const (
	UserRoleConsumer UserRole = "consumer"
	UserRoleStaff    UserRole = "staff"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	return r == UserRoleConsumer || r == UserRoleStaff
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	normalized := UserRole(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
