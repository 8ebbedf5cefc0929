package auth

import "fmt"

// Role is the binary authorization level established at login.
type Role string

const (
	RoleNone  Role = ""
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a configured role string to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleNone, fmt.Errorf("unknown role %q", s)
	}
}

// Checker classifies credentials into a role, or rejects them. Used only
// during login; implementations need no cross-session synchronization.
type Checker interface {
	Check(username, password string) (Role, bool)
}

// Credential is one configured username/password/role entry.
type Credential struct {
	Username string
	Password string
	Role     Role
}

// StaticChecker authenticates against a fixed credential set loaded from
// config.
type StaticChecker struct {
	users map[string]Credential
}

func NewStaticChecker(creds []Credential) *StaticChecker {
	c := &StaticChecker{users: make(map[string]Credential, len(creds))}
	for _, cred := range creds {
		c.users[cred.Username] = cred
	}
	return c
}

func (c *StaticChecker) Check(username, password string) (Role, bool) {
	cred, ok := c.users[username]
	if !ok || cred.Password != password {
		return RoleNone, false
	}
	return cred.Role, true
}
