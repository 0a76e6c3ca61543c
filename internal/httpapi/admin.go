package httpapi

import (
	"bytes"
	"fmt"
	"net/http"

	"barbershop/internal/bookings"
	"barbershop/internal/format"
	"barbershop/internal/models"
	"barbershop/internal/report"

	"github.com/go-chi/chi/v5"
)

// bookingView is a stored booking plus its display labels.
type bookingView struct {
	models.Booking
	DateLabel  string `json:"dateLabel"`
	PriceLabel string `json:"priceLabel"`
}

type bookingsResponse struct {
	Bookings []bookingView `json:"bookings"`
	Stats    bookings.Stats `json:"stats"`
}

func viewsOf(list []models.Booking) []bookingView {
	out := make([]bookingView, 0, len(list))
	for _, b := range list {
		out = append(out, bookingView{
			Booking:    b,
			DateLabel:  format.ShortDate(b.Date),
			PriceLabel: format.Price(b.Service.Price),
		})
	}
	return out
}

// authorized re-checks the session carried by the request. Admin operations
// never run without one.
func (s *server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if err := sessionFrom(r).RequireAt(s.cfg.Now()); err != nil {
		s.writeError(w, r, err)
		return false
	}
	return true
}

func filterFrom(r *http.Request) bookings.Filter {
	q := r.URL.Query()
	return bookings.Filter{
		Search: q.Get("search"),
		Status: q.Get("status"),
		Date:   q.Get("date"),
	}
}

func (s *server) filteredBookings(r *http.Request) ([]models.Booking, error) {
	list, err := s.cfg.Bookings.List(r.Context())
	if err != nil {
		return nil, err
	}
	return bookings.Apply(list, filterFrom(r), s.cfg.Now()), nil
}

func (s *server) listBookings(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	list, err := s.filteredBookings(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingsResponse{
		Bookings: viewsOf(list),
		Stats:    bookings.Summarize(list, s.cfg.Now()),
	})
}

func (s *server) exportBookings(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	list, err := s.filteredBookings(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteBookings(&buf, list); err != nil {
		s.writeError(w, r, err)
		return
	}

	name := fmt.Sprintf("reservas_%s.xlsx", s.cfg.Now().Format("20060102"))
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *server) updateBookingStatus(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	changed, err := s.cfg.Bookings.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": changed})
}

func (s *server) addService(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var req models.Service
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	svc, err := s.cfg.Catalog.Add(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (s *server) updateService(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var req models.Service
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.ID = chi.URLParam(r, "id")

	if err := s.cfg.Catalog.Update(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.cfg.Catalog.Get(r.Context(), req.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (s *server) deleteService(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	if err := s.cfg.Catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) getSchedule(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	cfg, err := s.cfg.Schedule.Load(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *server) saveSchedule(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var req models.ScheduleConfig
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cfg.Schedule.Save(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.getSchedule(w, r)
}

func (s *server) addCustomSlot(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	var req struct {
		Time string `json:"time"`
	}
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	cfg, err := s.cfg.Schedule.AddCustomSlot(r.Context(), req.Time)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *server) removeCustomSlot(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	cfg, err := s.cfg.Schedule.RemoveCustomSlot(r.Context(), chi.URLParam(r, "time"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
