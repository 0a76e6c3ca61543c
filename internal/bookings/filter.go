package bookings

import (
	"strings"
	"time"

	"barbershop/internal/calendar"
	"barbershop/internal/models"
)

// Filter values accepted by the admin view.
const (
	All       = "all"
	DateToday = "today"
	DateWeek  = "week"
)

const isoDate = "2006-01-02"

// Filter narrows the admin list. Empty fields behave like "all".
type Filter struct {
	Search string `json:"search"`
	Status string `json:"status"`
	Date   string `json:"date"`
}

// Stats summarises a filtered view.
type Stats struct {
	Total           int `json:"total"`
	Today           int `json:"today"`
	Revenue         int `json:"revenue"`
	PendingPayments int `json:"pendingPayments"`
}

// Apply returns the bookings matching f, preserving order. Dates compare as
// ISO strings against now's calendar date.
func Apply(list []models.Booking, f Filter, now time.Time) []models.Booking {
	term := strings.ToLower(f.Search)
	today := calendar.Today(now)
	weekEnd := now.AddDate(0, 0, 7).Format(isoDate)

	out := make([]models.Booking, 0, len(list))
	for _, b := range list {
		if term != "" && !matches(b, term) {
			continue
		}
		if f.Status != "" && f.Status != All && b.Status != f.Status {
			continue
		}
		switch f.Date {
		case DateToday:
			if b.Date != today {
				continue
			}
		case DateWeek:
			if b.Date < today || b.Date > weekEnd {
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

func matches(b models.Booking, term string) bool {
	for _, field := range []string{b.CustomerName, b.CustomerEmail, b.Service.Name} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Revenue sums service prices over the paid bookings of list.
func Revenue(list []models.Booking) int {
	total := 0
	for i := range list {
		if list[i].IsPaid() {
			total += list[i].Service.Price
		}
	}
	return total
}

// Summarize computes the admin header figures for a filtered view.
func Summarize(list []models.Booking, now time.Time) Stats {
	today := calendar.Today(now)
	st := Stats{Total: len(list), Revenue: Revenue(list)}
	for _, b := range list {
		if b.Date == today {
			st.Today++
		}
		if b.PaymentStatus == models.PaymentPending {
			st.PendingPayments++
		}
	}
	return st
}
