package model

// Claims is the bundle of identity attributes embedded in a session token.
// They are derived from a User at signup/login time and trusted without
// further lookup for the token's lifetime.
type Claims struct {
	ID       string  `json:"_id"`
	Name     Name    `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Address  Address `json:"address"`
	Gender   string  `json:"gender,omitempty"`
	UserType string  `json:"userType,omitempty"`
}

// NewClaims derives session claims from a user record.
func NewClaims(u *User) *Claims {
	return &Claims{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Address:  u.Address,
		Gender:   u.Gender,
		UserType: u.UserType,
	}
}

// IsAdmin reports whether the claims carry the admin role.
func (c *Claims) IsAdmin() bool {
	return c.UserType == UserTypeAdmin
}
