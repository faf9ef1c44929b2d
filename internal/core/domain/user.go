package domain

import "strings"

// Role is the permission level of a user account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleBot   Role = "bot"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleBot:
		return true
	}
	return false
}

// User models an account managed by the backend.
type User struct {
	ID         string   `json:"_id"`
	Email      string   `json:"email"`
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	Company    string   `json:"company"`
	Role       Role     `json:"role"`
	Codes      []string `json:"codes"`
	IsVerified bool     `json:"isVerified"`
}

// DisplayName returns "First Last", falling back to the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// HasCode reports whether code is assigned to the user.
func (u User) HasCode(code string) bool {
	for _, c := range u.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// NewUser is the registration payload.
type NewUser struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Company   string   `json:"company"`
	Role      Role     `json:"role"`
	Codes     []string `json:"codes"`
}

// UserUpdate is a partial update. Nil fields are left untouched. Email,
// password, id and verification status cannot be changed through it.
type UserUpdate struct {
	FirstName *string   `json:"firstName,omitempty"`
	LastName  *string   `json:"lastName,omitempty"`
	Company   *string   `json:"company,omitempty"`
	Role      *Role     `json:"role,omitempty"`
	Codes     *[]string `json:"codes,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Company == nil && u.Role == nil && u.Codes == nil
}

// Session is returned by a successful login.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
