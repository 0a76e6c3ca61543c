// Package schedule persists the working hours configuration and the slot
// list derived from it.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"barbershop/internal/models"
	"barbershop/internal/slots"
	"barbershop/internal/storage"

	"github.com/rs/zerolog"
)

var ErrInvalid = errors.New("invalid schedule")

// Store keeps the config under storage.KeyScheduleConfig and the generated
// slots under storage.KeyTimeSlots.
type Store struct {
	kv     storage.KV
	logger *zerolog.Logger
	mu     sync.Mutex
}

func NewStore(kv storage.KV, logger *zerolog.Logger) *Store {
	l := logger.With().Str("component", "schedule").Logger()
	return &Store{kv: kv, logger: &l}
}

// Load returns the saved configuration, or the default one when nothing
// usable is stored.
func (s *Store) Load(ctx context.Context) (models.ScheduleConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Save validates cfg and persists it together with its slot list.
func (s *Store) Save(ctx context.Context, cfg models.ScheduleConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, cfg)
}

// Slots returns the persisted slot list, regenerating it from the current
// configuration when missing or unreadable.
func (s *Store) Slots(ctx context.Context) ([]models.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []models.TimeSlot
	found, err := storage.GetJSON(ctx, s.kv, storage.KeyTimeSlots, &list)
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		return nil, err
	}
	if found && err == nil {
		return list, nil
	}

	cfg, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return slots.Generate(cfg)
}

// AddCustomSlot adds t to the custom slots. Empty and duplicate values are
// ignored.
func (s *Store) AddCustomSlot(ctx context.Context, t string) (models.ScheduleConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load(ctx)
	if err != nil {
		return cfg, err
	}

	t = strings.TrimSpace(t)
	if t == "" {
		return cfg, nil
	}
	minutes, err := slots.ParseClock(t)
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	t = slots.FormatClock(minutes)
	if slices.Contains(cfg.CustomSlots, t) {
		return cfg, nil
	}

	cfg.CustomSlots = append(cfg.CustomSlots, t)
	return cfg, s.save(ctx, cfg)
}

// RemoveCustomSlot drops t from the custom slots. t is normalized the same
// way AddCustomSlot does.
func (s *Store) RemoveCustomSlot(ctx context.Context, t string) (models.ScheduleConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.load(ctx)
	if err != nil {
		return cfg, err
	}

	minutes, err := slots.ParseClock(t)
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	t = slots.FormatClock(minutes)

	kept := make([]string, 0, len(cfg.CustomSlots))
	for _, c := range cfg.CustomSlots {
		if c != t {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(cfg.CustomSlots) {
		return cfg, nil
	}

	cfg.CustomSlots = kept
	return cfg, s.save(ctx, cfg)
}

func (s *Store) load(ctx context.Context) (models.ScheduleConfig, error) {
	var cfg models.ScheduleConfig
	found, err := storage.GetJSON(ctx, s.kv, storage.KeyScheduleConfig, &cfg)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		s.logger.Warn().Err(err).Msg("schedule config is corrupt, using defaults")
		return models.DefaultScheduleConfig(), nil
	case err != nil:
		return models.ScheduleConfig{}, err
	case !found:
		return models.DefaultScheduleConfig(), nil
	}
	if cfg.CustomSlots == nil {
		cfg.CustomSlots = []string{}
	}
	return cfg, nil
}

func (s *Store) save(ctx context.Context, cfg models.ScheduleConfig) error {
	if err := slots.Validate(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	list, err := slots.Generate(cfg)
	if err != nil {
		return err
	}
	if cfg.CustomSlots == nil {
		cfg.CustomSlots = []string{}
	}

	if err := storage.SetJSON(ctx, s.kv, storage.KeyScheduleConfig, cfg); err != nil {
		return err
	}
	if err := storage.SetJSON(ctx, s.kv, storage.KeyTimeSlots, list); err != nil {
		return err
	}

	s.logger.Info().
		Str("start", cfg.WorkingHours.Start).
		Str("end", cfg.WorkingHours.End).
		Int("slot_duration", cfg.SlotDuration).
		Int("slots", len(list)).
		Msg("schedule saved")
	return nil
}
