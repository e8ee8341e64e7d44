package mock

import (
	"github.com/gofrs/uuid"

	"github.com/bizcard/bizcard/internal/model"
)

func createUUID() string {
	id, _ := uuid.NewV4()
	return id.String()
}

// Password is the plaintext behind every fixture user's hash-free record.
// It satisfies the composition rule: length, upper, lower, digit, symbol.
const Password = "Strong1!Pass"

// NewUser returns a valid user payload with a unique email.
func NewUser() *model.User {
	return &model.User{
		Name: model.Name{
			First: "Dana",
			Last:  "Levy",
		},
		Phone:    "050-1234567",
		Email:    createUUID() + "@example.com",
		Password: Password,
		Address: model.Address{
			Country:     "Israel",
			City:        "Tel Aviv",
			Street:      "Dizengoff",
			HouseNumber: 12,
		},
		Gender:   "female",
		UserType: model.UserTypeRegular,
	}
}

// NewAdmin returns a valid admin payload with a unique email.
func NewAdmin() *model.User {
	u := NewUser()
	u.UserType = model.UserTypeAdmin
	return u
}

// NewCard returns a valid card payload.
func NewCard(ownerID string) *model.Card {
	return &model.Card{
		Title:       "Levy Plumbing",
		Subtitle:    "Pipes and fittings",
		Description: "Emergency plumbing around the clock",
		Phone:       "03-7654321",
		Email:       "office@levyplumbing.example.com",
		Web:         "https://levyplumbing.example.com",
		Address: model.Address{
			Country:     "Israel",
			City:        "Holon",
			Street:      "Sokolov",
			HouseNumber: 4,
			Zip:         "5810001",
		},
		UserID:          ownerID,
		FavoriteByUsers: []string{},
	}
}
