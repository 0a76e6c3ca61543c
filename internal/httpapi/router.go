// Package httpapi exposes the booking wizard and the admin view over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"barbershop/internal/admin"
	"barbershop/internal/bookings"
	"barbershop/internal/catalog"
	"barbershop/internal/schedule"
	"barbershop/internal/wizard"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Config wires the API to its stores.
type Config struct {
	Catalog   *catalog.Catalog
	Schedule  *schedule.Store
	Bookings  *bookings.Store
	Sessions  *wizard.Sessions
	Gate      *admin.Gate
	Tokens    *admin.Tokens
	LoginRate int // login attempts per minute per client
	Logger    *zerolog.Logger
	Now       func() time.Time
}

type server struct {
	cfg    Config
	logger *zerolog.Logger
	login  *loginLimiter
}

// New creates a chi router with all routes configured.
func New(cfg Config) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	l := cfg.Logger.With().Str("component", "http").Logger()
	s := &server{cfg: cfg, logger: &l, login: newLoginLimiter(cfg.LoginRate)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(countRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/services", s.listServices)
		r.Get("/calendar", s.getCalendar)
		r.Get("/slots", s.getSlots)

		r.Route("/wizard", func(r chi.Router) {
			r.Post("/", s.createWizard)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(s.loadWizard)
				r.Get("/", s.getWizard)
				r.Get("/slots", s.getWizardSlots)
				r.Post("/service", s.selectService)
				r.Post("/date", s.selectDate)
				r.Post("/time", s.selectTime)
				r.Post("/customer", s.setCustomer)
				r.Post("/next", s.next)
				r.Post("/back", s.back)
				r.Post("/complete", s.complete)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.adminLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Get("/bookings", s.listBookings)
				r.Get("/bookings/export", s.exportBookings)
				r.Patch("/bookings/{id}/status", s.updateBookingStatus)

				r.Post("/services", s.addService)
				r.Put("/services/{id}", s.updateService)
				r.Delete("/services/{id}", s.deleteService)

				r.Get("/schedule", s.getSchedule)
				r.Put("/schedule", s.saveSchedule)
				r.Post("/schedule/custom-slots", s.addCustomSlot)
				r.Delete("/schedule/custom-slots/{time}", s.removeCustomSlot)
			})
		})
	})

	return r
}
