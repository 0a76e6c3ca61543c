package models

import "time"

// Booking statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Booking is a finalized reservation. Service is a snapshot taken at
// confirmation time, later catalog edits do not touch it.
type Booking struct {
	ID            string  `json:"id"`
	CustomerName  string  `json:"customerName"`
	CustomerEmail string  `json:"customerEmail"`
	CustomerPhone string  `json:"customerPhone"`
	Service       Service `json:"service"`
	Date          string  `json:"date"` // YYYY-MM-DD
	Time          string  `json:"time"` // HH:MM
	Status        string  `json:"status"`
	PaymentStatus string  `json:"paymentStatus"`
	CreatedAt     string  `json:"createdAt"` // RFC3339
}

// ValidStatus reports whether s is one of the booking statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsPaid reports whether the booking has been paid.
func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentPaid
}

// Created parses CreatedAt. Zero time is returned for malformed values.
func (b *Booking) Created() time.Time {
	t, err := time.Parse(time.RFC3339, b.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
