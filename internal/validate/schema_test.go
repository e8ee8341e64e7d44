package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizcard/bizcard/internal/mock"
	"github.com/bizcard/bizcard/internal/model"
)

func TestUserSchema(t *testing.T) {
	schemas := New()

	tt := []struct {
		name    string
		mutate  func(u *model.User)
		wantErr []string
	}{
		{
			name:   "Valid",
			mutate: func(*model.User) {},
		},
		{
			name:    "Missing first name",
			mutate:  func(u *model.User) { u.Name.First = "" },
			wantErr: []string{"name.first"},
		},
		{
			name:    "Short last name",
			mutate:  func(u *model.User) { u.Name.Last = "L" },
			wantErr: []string{"name.last"},
		},
		{
			name:    "Phone too short",
			mutate:  func(u *model.User) { u.Phone = "123" },
			wantErr: []string{"phone"},
		},
		{
			name:    "Phone too long",
			mutate:  func(u *model.User) { u.Phone = "12345678901234" },
			wantErr: []string{"phone"},
		},
		{
			name:    "Bad email",
			mutate:  func(u *model.User) { u.Email = "not-an-email" },
			wantErr: []string{"email"},
		},
		{
			// Format check only; the domain is never resolved.
			name:   "Email on unresolvable domain",
			mutate: func(u *model.User) { u.Email = "office@levyplumbing.example.com" },
		},
		{
			name:    "Missing country and city",
			mutate:  func(u *model.User) { u.Address.Country = ""; u.Address.City = "" },
			wantErr: []string{"address.country", "address.city"},
		},
		{
			name:    "Missing user type",
			mutate:  func(u *model.User) { u.UserType = "" },
			wantErr: []string{"userType"},
		},
	}

	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			user := mock.NewUser()
			test.mutate(user)

			err := schemas.User(user)
			if len(test.wantErr) == 0 {
				require.NoError(t, err)
				return
			}

			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, field := range test.wantErr {
				assert.Contains(t, verr.Details, field)
			}
		})
	}
}

func TestPasswordPolicy(t *testing.T) {
	schemas := New()

	tt := []struct {
		password string
		valid    bool
	}{
		{"Strong1!Pass", true},
		{"short1!", false},  // too short
		{"Short1!", false},  // still too short
		{"strong1!pass", false}, // no uppercase
		{"STRONG1!PASS", false}, // no lowercase
		{"Strongs!Pass", false}, // no digit
		{"Strong11Pass", false}, // no symbol
		{"Str0ng<Pass", true},
		{"", false},
	}

	for _, test := range tt {
		t.Run(test.password, func(t *testing.T) {
			user := mock.NewUser()
			user.Password = test.password

			err := schemas.User(user)
			if test.valid {
				require.NoError(t, err)
				return
			}

			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Details, "password")
		})
	}
}

func TestCardSchema(t *testing.T) {
	schemas := New()

	tt := []struct {
		name    string
		mutate  func(c *model.Card)
		wantErr []string
	}{
		{
			name:   "Valid",
			mutate: func(*model.Card) {},
		},
		{
			name:    "Missing description",
			mutate:  func(c *model.Card) { c.Description = "" },
			wantErr: []string{"description"},
		},
		{
			name:    "Short title",
			mutate:  func(c *model.Card) { c.Title = "T" },
			wantErr: []string{"title"},
		},
		{
			name:    "Bad email",
			mutate:  func(c *model.Card) { c.Email = "nope" },
			wantErr: []string{"email"},
		},
		{
			name:   "Email on unresolvable domain",
			mutate: func(c *model.Card) { c.Email = "office@levyplumbing.example.com" },
		},
		{
			name:    "Missing street",
			mutate:  func(c *model.Card) { c.Address.Street = "" },
			wantErr: []string{"address.street"},
		},
	}

	for _, test := range tt {
		t.Run(test.name, func(t *testing.T) {
			card := mock.NewCard("owner")
			test.mutate(card)

			err := schemas.Card(card)
			if len(test.wantErr) == 0 {
				require.NoError(t, err)
				return
			}

			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, field := range test.wantErr {
				assert.Contains(t, verr.Details, field)
			}
		})
	}
}

func TestLoginSchema(t *testing.T) {
	schemas := New()

	require.NoError(t, schemas.Login(&LoginRequest{
		Email:    "dana@example.com",
		Password: "Strong1!Pass",
	}))

	err := schemas.Login(&LoginRequest{Email: "dana@example.com", Password: "short1!"})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details, "password")
}
