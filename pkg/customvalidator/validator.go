// Файл: pkg/customvalidator/validator.go
package customvalidator

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations регистрирует все кастомные правила валидации
// в переданном экземпляре валидатора.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("email", isGoodEmailFormat); err != nil {
		return err
	}
	if err := v.RegisterValidation("strong_password", isStrongPassword); err != nil {
		return err
	}
	if err := v.RegisterValidation("club_role", isClubRole); err != nil {
		return err
	}
	return nil
}

func isGoodEmailFormat(fl validator.FieldLevel) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(fl.Field().String())
}

// isStrongPassword — минимум 8 символов, хотя бы одна буква и одна цифра.
func isStrongPassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) < 8 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func isClubRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "owner", "moderator", "member":
		return true
	}
	return false
}
