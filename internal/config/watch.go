package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"barbershop/internal/models"

	"gopkg.in/yaml.v3"
)

// LoadScheduleFile reads a schedule configuration from YAML. Fields that are
// absent keep the default configuration values.
func LoadScheduleFile(path string) (*models.ScheduleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule config: %w", err)
	}

	cfg := models.DefaultScheduleConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse schedule config: %w", err)
	}
	if cfg.CustomSlots == nil {
		cfg.CustomSlots = []string{}
	}
	return &cfg, nil
}

// WatchSchedule reloads the schedule file on change and calls onUpdate with
// the latest config. It performs an initial load before entering the watch loop.
func WatchSchedule(ctx context.Context, path string, interval time.Duration, onUpdate func(*models.ScheduleConfig)) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	cfg, err := LoadScheduleFile(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	lastMod := info.ModTime()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				cfg, err := LoadScheduleFile(path)
				if err != nil {
					continue
				}
				lastMod = info.ModTime()
				if onUpdate != nil {
					onUpdate(cfg)
				}
			}
		}
	}()

	return nil
}
