package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"barbershop/internal/calendar"
	"barbershop/internal/models"
	"barbershop/internal/slots"
)

type monthRef struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

type calendarResponse struct {
	Title    string            `json:"title"`
	Year     int               `json:"year"`
	Month    time.Month        `json:"month"`
	Weekdays []string          `json:"weekdays"`
	Weeks    [][]*calendar.Day `json:"weeks"`
	Prev     monthRef          `json:"prev"`
	Next     monthRef          `json:"next"`
}

type slotsResponse struct {
	Date  string            `json:"date,omitempty"`
	Slots []models.TimeSlot `json:"slots"`
}

func (s *server) listServices(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Catalog.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) getCalendar(w http.ResponseWriter, r *http.Request) {
	now := s.cfg.Now()
	year, month := now.Year(), now.Month()

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: year", errBadRequest))
			return
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			s.writeError(w, r, fmt.Errorf("%w: month", errBadRequest))
			return
		}
		month = time.Month(m)
	}

	m := calendar.Build(year, month, q.Get("selected"), now)
	py, pm := m.Prev()
	ny, nm := m.Next()
	writeJSON(w, http.StatusOK, calendarResponse{
		Title:    m.Title(),
		Year:     m.Year,
		Month:    m.Month,
		Weekdays: calendar.Weekdays,
		Weeks:    m.Weeks(),
		Prev:     monthRef{Year: py, Month: pm},
		Next:     monthRef{Year: ny, Month: nm},
	})
}

func (s *server) getSlots(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Schedule.Slots(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	date := r.URL.Query().Get("date")
	if date != "" {
		taken, err := s.cfg.Bookings.TakenTimes(r.Context(), date)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		list = slots.MarkBooked(list, taken)
	}
	writeJSON(w, http.StatusOK, slotsResponse{Date: date, Slots: list})
}
