// Package bookings persists finalized bookings and implements the admin view
// over them.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"barbershop/internal/events"
	"barbershop/internal/metrics"
	"barbershop/internal/models"
	"barbershop/internal/storage"

	"github.com/rs/zerolog"
)

var ErrInvalidStatus = errors.New("invalid booking status")

// StatusChange is the payload of events.BookingStatusChanged.
type StatusChange struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Store keeps the whole collection under storage.KeyBookings. Every change
// rewrites the full collection, last writer wins.
type Store struct {
	kv     storage.KV
	bus    *events.Bus
	logger *zerolog.Logger
	mu     sync.Mutex
}

func NewStore(kv storage.KV, bus *events.Bus, logger *zerolog.Logger) *Store {
	l := logger.With().Str("component", "bookings").Logger()
	return &Store{kv: kv, bus: bus, logger: &l}
}

// List returns all bookings in insertion order. Missing or corrupt data
// yields an empty list.
func (s *Store) List(ctx context.Context) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Append adds b to the collection.
func (s *Store) Append(ctx context.Context, b models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.insert(ctx, list, b)
}

// AppendIfFree adds b unless its date and time are already held by a
// non-cancelled booking. It reports whether b was stored. The check and the
// write happen under the store lock.
func (s *Store) AppendIfFree(ctx context.Context, b models.Booking) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(takenOn(list, b.Date), b.Time) {
		s.logger.Warn().Str("date", b.Date).Str("time", b.Time).Msg("slot already booked")
		return false, nil
	}
	return true, s.insert(ctx, list, b)
}

func (s *Store) insert(ctx context.Context, list []models.Booking, b models.Booking) error {
	list = append(list, b)
	if err := storage.SetJSON(ctx, s.kv, storage.KeyBookings, list); err != nil {
		return fmt.Errorf("append booking: %w", err)
	}

	s.logger.Info().
		Str("booking_id", b.ID).
		Str("date", b.Date).
		Str("time", b.Time).
		Str("service", b.Service.Name).
		Msg("booking created")
	s.publish(events.BookingCreated, b)
	return nil
}

// UpdateStatus replaces the status of the booking with id. It reports whether
// a record changed. An unknown id is a silent no-op.
func (s *Store) UpdateStatus(ctx context.Context, id, status string) (bool, error) {
	if !models.ValidStatus(status) {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	idx := -1
	for i := range list {
		if list[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	prev := list[idx].Status
	list[idx].Status = status
	if err := storage.SetJSON(ctx, s.kv, storage.KeyBookings, list); err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}

	metrics.IncStatusChange(status)
	s.logger.Info().Str("booking_id", id).Str("from", prev).Str("to", status).Msg("booking status changed")
	s.publish(events.BookingStatusChanged, StatusChange{ID: id, From: prev, To: status})
	return true, nil
}

// TakenTimes returns the start times already booked on date. Cancelled
// bookings free their slot.
func (s *Store) TakenTimes(ctx context.Context, date string) ([]string, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return takenOn(list, date), nil
}

func takenOn(list []models.Booking, date string) []string {
	var taken []string
	for _, b := range list {
		if b.Date == date && b.Status != models.StatusCancelled {
			taken = append(taken, b.Time)
		}
	}
	return taken
}

func (s *Store) load(ctx context.Context) ([]models.Booking, error) {
	var list []models.Booking
	_, err := storage.GetJSON(ctx, s.kv, storage.KeyBookings, &list)
	if errors.Is(err, storage.ErrCorrupt) {
		s.logger.Warn().Err(err).Msg("bookings data is corrupt, starting empty")
		return []models.Booking{}, nil
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Booking{}
	}
	return list, nil
}

func (s *Store) publish(eventType string, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish failed")
	}
}
