// Package storage provides the key/value persistence used by every store.
// Values are JSON blobs kept under fixed string keys.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Persisted keys.
const (
	KeyBookings       = "barber_bookings"
	KeyServices       = "barber_services"
	KeyScheduleConfig = "barber_schedule_config"
	KeyTimeSlots      = "barber_time_slots"
)

var (
	ErrNotFound = errors.New("key not found")
	ErrCorrupt  = errors.New("corrupt value")
)

// KV is a string-keyed blob store. No transactions.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// GetJSON decodes the value under key into out. found is false when the key
// is missing. A value that does not decode returns ErrCorrupt.
func GetJSON(ctx context.Context, kv KV, key string, out any) (found bool, err error) {
	data, err := kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, errors.Join(ErrCorrupt, err))
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
