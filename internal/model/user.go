package model

// Name holds the components of a user's full name.
type Name struct {
	First  string `json:"first"`
	Middle string `json:"middle,omitempty"`
	Last   string `json:"last"`
}

// Address is a postal address shared by users and cards.
// Zip is only ever populated on cards.
type Address struct {
	State       string `json:"state,omitempty"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Street      string `json:"street"`
	HouseNumber int    `json:"houseNumber"`
	Zip         string `json:"zip,omitempty"`
}

// Image is an optional image reference.
type Image struct {
	URL string `json:"url,omitempty"`
	Alt string `json:"alt,omitempty"`
}

// User types
const (
	UserTypeRegular  = "regular"
	UserTypeBusiness = "business"
	UserTypeAdmin    = "admin"
)

// User is a registered account. Password carries the plaintext password on
// the way in (signup and full-update requests) and the bcrypt hash once
// persisted. It is stripped from every response via Sanitized.
type User struct {
	ID       string  `json:"_id"`
	Name     Name    `json:"name"`
	Phone    string  `json:"phone"`
	Email    string  `json:"email"`
	Password string  `json:"password,omitempty"`
	Address  Address `json:"address"`
	Image    *Image  `json:"image,omitempty"`
	Gender   string  `json:"gender,omitempty"`
	UserType string  `json:"userType"`
}

// SanitizedUser is the allow-list projection of a User returned by the API.
// There is no password field by construction.
type SanitizedUser struct {
	ID       string  `json:"_id"`
	Name     Name    `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Address  Address `json:"address"`
	Image    *Image  `json:"image,omitempty"`
	Gender   string  `json:"gender,omitempty"`
	UserType string  `json:"userType"`
}

// Sanitized projects the user through the response allow-list.
func (u *User) Sanitized() *SanitizedUser {
	return &SanitizedUser{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Address:  u.Address,
		Image:    u.Image,
		Gender:   u.Gender,
		UserType: u.UserType,
	}
}

// SanitizeUsers projects a list of users.
func SanitizeUsers(users []*User) []*SanitizedUser {
	sanitized := make([]*SanitizedUser, 0, len(users))
	for _, u := range users {
		sanitized = append(sanitized, u.Sanitized())
	}
	return sanitized
}
