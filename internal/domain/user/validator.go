package user

import (
	"fmt"
	"net/mail"
)

const (
	minPasswordLen = 4
	maxPasswordLen = 72 // предел bcrypt
)

type Validator interface {
	ValidateSignUp(email, password string) error
	ValidateEmail(email string) error
}

type BasicValidator struct{}

func NewValidator() BasicValidator {
	return BasicValidator{}
}

func (BasicValidator) ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email: %s", email)
	}
	return nil
}

func (v BasicValidator) ValidateSignUp(email, password string) error {
	if err := v.ValidateEmail(email); err != nil {
		return err
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLen)
	}
	return nil
}
