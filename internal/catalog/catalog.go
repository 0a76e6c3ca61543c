// Package catalog manages the list of bookable services.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"barbershop/internal/models"
	"barbershop/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound = errors.New("service not found")
	ErrInvalid  = errors.New("invalid service")
)

// Catalog persists services under storage.KeyServices.
type Catalog struct {
	kv     storage.KV
	logger *zerolog.Logger
	mu     sync.Mutex
}

func New(kv storage.KV, logger *zerolog.Logger) *Catalog {
	l := logger.With().Str("component", "catalog").Logger()
	return &Catalog{kv: kv, logger: &l}
}

// List returns the catalog. When nothing usable is stored the default
// services are written and returned.
func (c *Catalog) List(ctx context.Context) ([]models.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Get returns the service with id.
func (c *Catalog) Get(ctx context.Context, id string) (models.Service, error) {
	list, err := c.List(ctx)
	if err != nil {
		return models.Service{}, err
	}
	for _, s := range list {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Service{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Add appends svc with a new id.
func (c *Catalog) Add(ctx context.Context, svc models.Service) (models.Service, error) {
	if err := validate(svc); err != nil {
		return models.Service{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.load(ctx)
	if err != nil {
		return models.Service{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.Service{}, fmt.Errorf("generate service id: %w", err)
	}
	svc.ID = id.String()
	if svc.Image == "" {
		svc.Image = models.DefaultImage
	}

	list = append(list, svc)
	if err := storage.SetJSON(ctx, c.kv, storage.KeyServices, list); err != nil {
		return models.Service{}, err
	}
	c.logger.Info().Str("service_id", svc.ID).Str("name", svc.Name).Msg("service added")
	return svc, nil
}

// Update replaces the service with svc.ID.
func (c *Catalog) Update(ctx context.Context, svc models.Service) error {
	if err := validate(svc); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.load(ctx)
	if err != nil {
		return err
	}

	for i := range list {
		if list[i].ID != svc.ID {
			continue
		}
		if svc.Image == "" {
			svc.Image = list[i].Image
		}
		list[i] = svc
		if err := storage.SetJSON(ctx, c.kv, storage.KeyServices, list); err != nil {
			return err
		}
		c.logger.Info().Str("service_id", svc.ID).Msg("service updated")
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotFound, svc.ID)
}

// Delete removes the service with id. Existing bookings keep their snapshot.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.load(ctx)
	if err != nil {
		return err
	}

	out := list[:0]
	for _, s := range list {
		if s.ID != id {
			out = append(out, s)
		}
	}
	if len(out) == len(list) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := storage.SetJSON(ctx, c.kv, storage.KeyServices, out); err != nil {
		return err
	}
	c.logger.Info().Str("service_id", id).Msg("service deleted")
	return nil
}

func (c *Catalog) load(ctx context.Context) ([]models.Service, error) {
	var list []models.Service
	found, err := storage.GetJSON(ctx, c.kv, storage.KeyServices, &list)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		c.logger.Warn().Err(err).Msg("services data is corrupt, restoring defaults")
	case err != nil:
		return nil, err
	case found:
		return list, nil
	}

	list = models.DefaultServices()
	if err := storage.SetJSON(ctx, c.kv, storage.KeyServices, list); err != nil {
		return nil, err
	}
	return list, nil
}

func validate(svc models.Service) error {
	switch {
	case strings.TrimSpace(svc.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case svc.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalid)
	case svc.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalid)
	}
	return nil
}
