package models

// CustomerData is the contact information entered in the wizard.
type CustomerData struct {
	Name  string `json:"name" validate:"notblank"`
	Email string `json:"email" validate:"notblank,loose_email"`
	Phone string `json:"phone" validate:"notblank,min_digits=10"`
}
