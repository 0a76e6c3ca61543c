// Package customer validates the contact details entered in the wizard.
package customer

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"barbershop/internal/models"

	"github.com/go-playground/validator/v10"
)

// Field names as exposed to clients.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

const (
	MsgNameRequired  = "El nombre es requerido"
	MsgEmailRequired = "El email es requerido"
	MsgEmailInvalid  = "Email no válido"
	MsgPhoneRequired = "El teléfono es requerido"
	MsgPhoneTooShort = "Teléfono debe tener al menos 10 dígitos"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// FieldErrors maps a field name to its message. Empty means valid.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return fmt.Sprintf("validation failed: [%s]", strings.Join(parts, "; "))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "notblank", validateNotBlank)
	mustRegister(v, "loose_email", validateLooseEmail)
	mustRegister(v, "min_digits", validateMinDigits)
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validator: %v", tag, err))
	}
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateLooseEmail(fl validator.FieldLevel) bool {
	return emailPattern.MatchString(fl.Field().String())
}

func validateMinDigits(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return countDigits(fl.Field().String()) >= limit
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// Validate checks data and returns one message per failing field.
func Validate(data models.CustomerData) FieldErrors {
	errs := FieldErrors{}

	err := validate.Struct(data)
	if err == nil {
		return errs
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		// Only struct misuse gets here, which would be a programming error.
		panic(err)
	}

	for _, fe := range validationErrs {
		errs[fe.Field()] = translate(fe)
	}
	return errs
}

func translate(fe validator.FieldError) string {
	switch fe.Field() {
	case FieldName:
		return MsgNameRequired
	case FieldEmail:
		if fe.Tag() == "loose_email" {
			return MsgEmailInvalid
		}
		return MsgEmailRequired
	case FieldPhone:
		if fe.Tag() == "min_digits" {
			return MsgPhoneTooShort
		}
		return MsgPhoneRequired
	}
	return fe.Error()
}
