package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/jhoicas/hierarchy-api/internal/domain"
)

// createInput datos normalizados de alta; el orden de los campos define cuál error se reporta primero.
type createInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,len=10,numeric"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// updateInput igual que createInput sin password obligatorio ni rol.
type updateInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,len=10,numeric"`
	Password string `json:"password"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NormalizePhone deja solo dígitos y quita el prefijo de país 91 (12 dígitos) o el 0 troncal (11 dígitos).
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return digits[1:]
	}
	return digits
}

// validateStruct ejecuta el validador y traduce el primer fallo a *domain.ValidationError.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	fe := fieldErrs[0]
	return domain.NewValidationError(fe.Field(), messageFor(fe))
}

func messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case "phone":
		if fe.Tag() != "required" {
			return "el teléfono debe tener exactamente 10 dígitos"
		}
	case "email":
		if fe.Tag() == "email" {
			return "email inválido"
		}
	}
	if fe.Tag() == "required" {
		return fe.Field() + " es requerido"
	}
	return fmt.Sprintf("%s inválido (%s)", fe.Field(), fe.Tag())
}
