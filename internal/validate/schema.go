package validate

import (
	"errors"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/bizcard/bizcard/internal/model"
)

// LoginRequest is the payload accepted by the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Schemas validates incoming payloads before any store operation runs.
// A single instance is constructed at process start and shared by the
// resource handlers; it holds no mutable state.
type Schemas struct{}

// New returns the schema set for users, cards, and login requests.
func New() *Schemas {
	return &Schemas{}
}

// User checks a full user payload (signup and full update).
func (s *Schemas) User(u *model.User) error {
	errs := validation.Errors{
		"name":  s.name(&u.Name),
		"phone": validation.Validate(u.Phone, validation.Required, validation.Length(4, 13)),
		"email": validation.Validate(u.Email, validation.Required, is.EmailFormat),
		"password": validation.Validate(u.Password,
			validation.Required, validation.Length(8, 0), validation.By(passwordComposition)),
		"address":  s.address(&u.Address),
		"userType": validation.Validate(u.UserType, validation.Required),
	}.Filter()
	if errs != nil {
		return toValidationError(errs)
	}
	return nil
}

// Card checks a full card payload (create and full update).
func (s *Schemas) Card(c *model.Card) error {
	errs := validation.Errors{
		"title":       validation.Validate(c.Title, validation.Required, validation.Length(2, 0)),
		"subtitle":    validation.Validate(c.Subtitle, validation.Required, validation.Length(2, 0)),
		"description": validation.Validate(c.Description, validation.Required, validation.Length(2, 0)),
		"phone":       validation.Validate(c.Phone, validation.Required, validation.Length(4, 13)),
		"email":       validation.Validate(c.Email, validation.Required, is.EmailFormat),
		"address":     s.address(&c.Address),
	}.Filter()
	if errs != nil {
		return toValidationError(errs)
	}
	return nil
}

// Login checks a login payload.
func (s *Schemas) Login(r *LoginRequest) error {
	errs := validation.Errors{
		"email": validation.Validate(r.Email, validation.Required, is.EmailFormat),
		"password": validation.Validate(r.Password,
			validation.Required, validation.Length(8, 0), validation.By(passwordComposition)),
	}.Filter()
	if errs != nil {
		return toValidationError(errs)
	}
	return nil
}

func (s *Schemas) name(n *model.Name) error {
	return validation.Errors{
		"first":  validation.Validate(n.First, validation.Required, validation.Length(2, 0)),
		"middle": validation.Validate(n.Middle, validation.Length(2, 0)),
		"last":   validation.Validate(n.Last, validation.Required, validation.Length(2, 0)),
	}.Filter()
}

func (s *Schemas) address(a *model.Address) error {
	return validation.Errors{
		"state":       validation.Validate(a.State, validation.Length(2, 0)),
		"country":     validation.Validate(a.Country, validation.Required, validation.Length(2, 0)),
		"city":        validation.Validate(a.City, validation.Required, validation.Length(2, 0)),
		"street":      validation.Validate(a.Street, validation.Required, validation.Length(2, 0)),
		"houseNumber": validation.Validate(a.HouseNumber, validation.Min(0)),
		"zip":         validation.Validate(a.Zip, validation.Length(2, 0)),
	}.Filter()
}

// passwordSymbols is the fixed punctuation set accepted by the password
// composition rule.
const passwordSymbols = "!@#$%^&*()-_=+{};:,<.>"

func passwordComposition(value interface{}) error {
	s, _ := value.(string)
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return errors.New("must contain an uppercase letter, a lowercase letter, a digit, and a symbol")
	}
	return nil
}

// toValidationError flattens nested ozzo errors into dotted field paths.
func toValidationError(err error) *model.ValidationError {
	details := make(map[string]string)
	flatten("", err, details)
	return &model.ValidationError{Details: details}
}

func flatten(prefix string, err error, out map[string]string) {
	var errs validation.Errors
	if errors.As(err, &errs) {
		for field, fieldErr := range errs {
			key := field
			if prefix != "" {
				key = prefix + "." + field
			}
			flatten(key, fieldErr, out)
		}
		return
	}
	out[prefix] = err.Error()
}
