package customer

import (
	"fmt"

	"barbershop/internal/models"
)

// Form holds the customer step's current input and errors. Editing a field
// clears only that field's error; Submit re-validates everything.
type Form struct {
	data   models.CustomerData
	errors FieldErrors
}

// NewForm starts a form prefilled with data.
func NewForm(data models.CustomerData) *Form {
	return &Form{data: data, errors: FieldErrors{}}
}

// Set updates one field.
func (f *Form) Set(field, value string) error {
	switch field {
	case FieldName:
		f.data.Name = value
	case FieldEmail:
		f.data.Email = value
	case FieldPhone:
		f.data.Phone = value
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	delete(f.errors, field)
	return nil
}

// Submit validates the form. It returns the data when there are no errors.
func (f *Form) Submit() (models.CustomerData, FieldErrors) {
	f.errors = Validate(f.data)
	if len(f.errors) > 0 {
		return models.CustomerData{}, f.Errors()
	}
	return f.data, nil
}

// Data returns the current input.
func (f *Form) Data() models.CustomerData {
	return f.data
}

// Errors returns a copy of the current errors.
func (f *Form) Errors() FieldErrors {
	out := make(FieldErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}
