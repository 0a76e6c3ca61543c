package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"barbershop/internal/models"
	"barbershop/internal/wizard"

	"github.com/go-chi/chi/v5"
)

type ctxKey string

const wizardKey ctxKey = "wizard"

type wizardResponse struct {
	ID string `json:"id"`
	wizard.Snapshot
}

type completeResponse struct {
	Booking models.Booking `json:"booking"`
	State   wizardResponse `json:"state"`
}

func (s *server) loadWizard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wz, ok := s.cfg.Sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			writeMessage(w, http.StatusNotFound, "wizard session not found")
			return
		}
		ctx := context.WithValue(r.Context(), wizardKey, wz)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func wizardFrom(r *http.Request) *wizard.Wizard {
	return r.Context().Value(wizardKey).(*wizard.Wizard)
}

func (s *server) writeState(w http.ResponseWriter, r *http.Request, status int) {
	writeJSON(w, status, wizardResponse{ID: chi.URLParam(r, "id"), Snapshot: wizardFrom(r).Snapshot()})
}

// update runs op and answers with the new state.
func (s *server) update(w http.ResponseWriter, r *http.Request, op func(*wizard.Wizard) error) {
	if err := op(wizardFrom(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeState(w, r, http.StatusOK)
}

func (s *server) createWizard(w http.ResponseWriter, r *http.Request) {
	id, wz := s.cfg.Sessions.Create()
	writeJSON(w, http.StatusCreated, wizardResponse{ID: id, Snapshot: wz.Snapshot()})
}

func (s *server) getWizard(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, r, http.StatusOK)
}

func (s *server) getWizardSlots(w http.ResponseWriter, r *http.Request) {
	wz := wizardFrom(r)
	date := r.URL.Query().Get("date")
	if date == "" {
		date = wz.Snapshot().Draft.Date
	}
	if date == "" {
		s.writeError(w, r, fmt.Errorf("%w: date is required", errBadRequest))
		return
	}

	list, err := wz.AvailableSlots(r.Context(), date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slotsResponse{Date: date, Slots: list})
}

func (s *server) selectService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServiceID string `json:"serviceId"`
	}
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.update(w, r, func(wz *wizard.Wizard) error {
		return wz.SelectService(r.Context(), req.ServiceID)
	})
}

func (s *server) selectDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.update(w, r, func(wz *wizard.Wizard) error {
		return wz.SelectDate(req.Date)
	})
}

func (s *server) selectTime(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Time string `json:"time"`
	}
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.update(w, r, func(wz *wizard.Wizard) error {
		return wz.SelectTime(r.Context(), req.Time)
	})
}

func (s *server) setCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.CustomerData
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.update(w, r, func(wz *wizard.Wizard) error {
		return wz.SetCustomer(req)
	})
}

func (s *server) next(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, func(wz *wizard.Wizard) error {
		return wz.Next(r.Context())
	})
}

func (s *server) back(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step string `json:"step"`
	}
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	step, ok := wizard.ParseStep(req.Step)
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: unknown step %q", errBadRequest, req.Step))
		return
	}
	s.update(w, r, func(wz *wizard.Wizard) error {
		return wz.Back(step)
	})
}

func (s *server) complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
	}
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	wz := wizardFrom(r)
	b, err := wz.Complete(r.Context(), req.Method)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, completeResponse{
		Booking: b,
		State:   wizardResponse{ID: chi.URLParam(r, "id"), Snapshot: wz.Snapshot()},
	})
}
