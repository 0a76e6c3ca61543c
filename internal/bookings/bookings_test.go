package bookings

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"barbershop/internal/events"
	"barbershop/internal/models"
	"barbershop/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, storage.KV, *events.Bus) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	kv := storage.NewMemoryStore()
	bus := events.NewBus(&logger)
	return NewStore(kv, bus, &logger), kv, bus
}

func booking(id, name, date, status, payment string, price int) models.Booking {
	return models.Booking{
		ID:            id,
		CustomerName:  name,
		CustomerEmail: "x@example.com",
		CustomerPhone: "1123456789",
		Service:       models.Service{ID: "1", Name: "Corte Clásico", Price: price, Duration: 30},
		Date:          date,
		Time:          "10:00",
		Status:        status,
		PaymentStatus: payment,
		CreatedAt:     "2026-10-01T10:00:00Z",
	}
}

func TestStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	s, _, bus := newTestStore(t)

	var created []string
	bus.Subscribe(events.BookingCreated, func(e events.Event) error {
		var b models.Booking
		require.NoError(t, e.Decode(&b))
		created = append(created, b.ID)
		return nil
	})

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.Append(ctx, booking("a", "Ana", "2026-10-20", models.StatusConfirmed, models.PaymentPaid, 15000)))
	require.NoError(t, s.Append(ctx, booking("b", "Beto", "2026-10-21", models.StatusPending, models.PaymentPending, 20000)))

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, []string{"a", "b"}, created)
}

func TestStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	s, _, bus := newTestStore(t)
	original := booking("a", "Ana", "2026-10-20", models.StatusConfirmed, models.PaymentPending, 15000)
	require.NoError(t, s.Append(ctx, original))

	var changes []StatusChange
	bus.Subscribe(events.BookingStatusChanged, func(e events.Event) error {
		var c StatusChange
		require.NoError(t, e.Decode(&c))
		changes = append(changes, c)
		return nil
	})

	changed, err := s.UpdateStatus(ctx, "a", models.StatusCompleted)
	require.NoError(t, err)
	assert.True(t, changed)

	list, err := s.List(ctx)
	require.NoError(t, err)
	expected := original
	expected.Status = models.StatusCompleted
	assert.Equal(t, []models.Booking{expected}, list, "only status may change")
	assert.Equal(t, []StatusChange{{ID: "a", From: models.StatusConfirmed, To: models.StatusCompleted}}, changes)

	t.Run("unknown id is a no-op", func(t *testing.T) {
		changed, err := s.UpdateStatus(ctx, "missing", models.StatusCancelled)
		require.NoError(t, err)
		assert.False(t, changed)
		after, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, list, after)
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		_, err := s.UpdateStatus(ctx, "a", "archived")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestStore_CorruptDataFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newTestStore(t)
	require.NoError(t, kv.Set(ctx, storage.KeyBookings, []byte("not json")))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.Append(ctx, booking("a", "Ana", "2026-10-20", models.StatusConfirmed, models.PaymentPaid, 1)))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_TakenTimes(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	b1 := booking("a", "Ana", "2026-10-20", models.StatusConfirmed, models.PaymentPaid, 1)
	b2 := booking("b", "Beto", "2026-10-20", models.StatusCancelled, models.PaymentPending, 1)
	b2.Time = "11:00"
	b3 := booking("c", "Caro", "2026-10-21", models.StatusConfirmed, models.PaymentPaid, 1)
	for _, b := range []models.Booking{b1, b2, b3} {
		require.NoError(t, s.Append(ctx, b))
	}

	taken, err := s.TakenTimes(ctx, "2026-10-20")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, taken)
}

func TestStore_AppendIfFree(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	cancelled := booking("a", "Ana", "2026-10-20", models.StatusCancelled, models.PaymentPending, 1)
	require.NoError(t, s.Append(ctx, cancelled))

	stored, err := s.AppendIfFree(ctx, booking("b", "Beto", "2026-10-20", models.StatusConfirmed, models.PaymentPaid, 1))
	require.NoError(t, err)
	assert.True(t, stored, "a cancelled booking frees its slot")

	stored, err = s.AppendIfFree(ctx, booking("c", "Caro", "2026-10-20", models.StatusConfirmed, models.PaymentPaid, 1))
	require.NoError(t, err)
	assert.False(t, stored)

	stored, err = s.AppendIfFree(ctx, booking("d", "Dani", "2026-10-21", models.StatusConfirmed, models.PaymentPaid, 1))
	require.NoError(t, err)
	assert.True(t, stored)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestStore_AppendIfFreeConcurrent(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t)

	const n = 8
	results := make(chan bool, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stored, err := s.AppendIfFree(ctx, booking(fmt.Sprint(i), "Ana", "2026-10-20", models.StatusConfirmed, models.PaymentPaid, 1))
			assert.NoError(t, err)
			results <- stored
		}()
	}
	wg.Wait()
	close(results)

	var stored int
	for ok := range results {
		if ok {
			stored++
		}
	}
	assert.Equal(t, 1, stored)

	taken, err := s.TakenTimes(ctx, "2026-10-20")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, taken)
}

func TestApply(t *testing.T) {
	now := time.Date(2026, time.October, 15, 18, 0, 0, 0, time.UTC)
	list := []models.Booking{
		booking("1", "Ana Lopez", "2026-10-15", models.StatusConfirmed, models.PaymentPaid, 15000),
		booking("2", "Bruno Díaz", "2026-10-15", models.StatusPending, models.PaymentPending, 20000),
		booking("3", "Carla Ruiz", "2026-10-22", models.StatusConfirmed, models.PaymentPaid, 25000),
		booking("4", "Diego Sosa", "2026-10-23", models.StatusCompleted, models.PaymentPaid, 8000),
		booking("5", "Eva Gómez", "2026-10-14", models.StatusCancelled, models.PaymentPending, 12000),
	}
	list[3].Service.Name = "Arreglo de Cejas"
	list[4].CustomerEmail = "ANA@mail.com"

	ids := func(bs []models.Booking) []string {
		out := make([]string, 0, len(bs))
		for _, b := range bs {
			out = append(out, b.ID)
		}
		return out
	}

	tests := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{"empty filter matches all", Filter{}, []string{"1", "2", "3", "4", "5"}},
		{"all values match all", Filter{Status: All, Date: All}, []string{"1", "2", "3", "4", "5"}},
		{"search is case-insensitive on name and email", Filter{Search: "ana"}, []string{"1", "5"}},
		{"search matches service name", Filter{Search: "CEJAS"}, []string{"4"}},
		{"search term is used as typed", Filter{Search: "ana "}, []string{"1"}},
		{"leading space is part of the term", Filter{Search: " ana"}, []string{}},
		{"status exact match", Filter{Status: models.StatusConfirmed}, []string{"1", "3"}},
		{"today", Filter{Date: DateToday}, []string{"1", "2"}},
		{"week is today through seven days", Filter{Date: DateWeek}, []string{"1", "2", "3"}},
		{"combined", Filter{Search: "a", Status: models.StatusConfirmed, Date: DateWeek}, []string{"1", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(Apply(list, tt.filter, now)))
		})
	}
}

func TestRevenueAndSummary(t *testing.T) {
	now := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)
	list := []models.Booking{
		booking("1", "Ana", "2026-10-15", models.StatusConfirmed, models.PaymentPaid, 15000),
		booking("2", "Bruno", "2026-10-15", models.StatusConfirmed, models.PaymentPending, 20000),
		booking("3", "Carla", "2026-10-16", models.StatusCompleted, models.PaymentPaid, 8000),
	}

	assert.Equal(t, 23000, Revenue(list))
	assert.Equal(t, 0, Revenue(nil))

	filtered := Apply(list, Filter{Status: models.StatusConfirmed}, now)
	assert.Equal(t, 15000, Revenue(filtered), "revenue follows the filtered view")

	assert.Equal(t, Stats{Total: 3, Today: 2, Revenue: 23000, PendingPayments: 1}, Summarize(list, now))
}
