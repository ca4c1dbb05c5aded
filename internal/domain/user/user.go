// Package user models the signed-in account. Identity throughout the
// system is the email; everything else is profile data from the users
// collection.
package user

import (
	"net/mail"

	"spotwise/internal/pkg/errs"
)

type User struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	CarPlateNumber string `json:"carPlateNumber"`
}

// Parse builds a User from a raw users document.
func Parse(fields map[string]any) (User, error) {
	email, _ := fields["email"].(string)
	if email == "" {
		return User{}, errs.New("user document missing email")
	}
	name, _ := fields["name"].(string)
	plate, _ := fields["carPlateNumber"].(string)
	return User{Email: email, Name: name, CarPlateNumber: plate}, nil
}

// ValidEmail reports whether s is an address the login form accepts.
func ValidEmail(s string) bool {
	if s == "" {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}
