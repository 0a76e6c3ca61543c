package wizard

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"barbershop/internal/bookings"
	"barbershop/internal/catalog"
	"barbershop/internal/customer"
	"barbershop/internal/models"
	"barbershop/internal/payment"
	"barbershop/internal/schedule"
	"barbershop/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

const futureDate = "2026-10-20"

var validCustomer = models.CustomerData{Name: "Ana", Email: "a@b.com", Phone: "1123456789"}

type env struct {
	deps     Deps
	bookings *bookings.Store
}

func newEnv(t *testing.T, opts payment.Options) *env {
	t.Helper()
	logger := zerolog.New(io.Discard)
	kv := storage.NewMemoryStore()
	store := bookings.NewStore(kv, nil, &logger)
	return &env{
		bookings: store,
		deps: Deps{
			Catalog:  catalog.New(kv, &logger),
			Slots:    schedule.NewStore(kv, &logger),
			Bookings: store,
			Payments: payment.NewProcessor(opts, &logger),
			Logger:   &logger,
			Now:      func() time.Time { return testNow },
		},
	}
}

// toPayment drives w to the payment step with a valid draft.
func toPayment(t *testing.T, w *Wizard) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, w.SelectService(ctx, "1"))
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.SelectDate(futureDate))
	require.NoError(t, w.SelectTime(ctx, "10:00"))
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.SetCustomer(validCustomer))
	require.NoError(t, w.Next(ctx))
	require.Equal(t, StepPayment, w.Step())
}

func TestFSM(t *testing.T) {
	fsm := NewFSM()
	tests := []struct {
		from, to Step
		allowed  bool
	}{
		{StepService, StepDateTime, true},
		{StepDateTime, StepCustomer, true},
		{StepCustomer, StepPayment, true},
		// Back transitions
		{StepPayment, StepService, true},
		{StepCustomer, StepDateTime, true},
		// Skipping ahead
		{StepService, StepCustomer, false},
		{StepService, StepPayment, false},
		{StepDateTime, StepPayment, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, fsm.CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	step, ok := ParseStep("customer")
	assert.True(t, ok)
	assert.Equal(t, 3, step.Number())
	_, ok = ParseStep("done")
	assert.False(t, ok)
}

func TestComplete_CashEndToEnd(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, payment.Options{})
	w := New(e.deps)
	toPayment(t, w)

	snap := w.Snapshot()
	require.NotNil(t, snap.Summary)
	assert.Equal(t, "$15.000", snap.Summary.Price)
	assert.Equal(t, "martes, 20 de octubre de 2026", snap.Summary.Date)

	b, err := w.Complete(ctx, payment.MethodCash)
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, models.StatusConfirmed, b.Status)
	assert.Equal(t, models.PaymentPending, b.PaymentStatus)
	assert.Equal(t, 15000, b.Service.Price)
	assert.Equal(t, 30, b.Service.Duration)
	assert.Equal(t, futureDate, b.Date)
	assert.Equal(t, "10:00", b.Time)
	assert.Equal(t, "Ana", b.CustomerName)
	assert.Equal(t, testNow.Format(time.RFC3339), b.CreatedAt)

	list, err := e.bookings.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b, list[0])

	snap = w.Snapshot()
	assert.Equal(t, StepService, snap.Step)
	assert.Nil(t, snap.Draft.Service)
	assert.Empty(t, snap.Draft.Date)
	assert.Equal(t, models.CustomerData{}, snap.Draft.Customer)
}

func TestComplete_CardIsPaid(t *testing.T) {
	e := newEnv(t, payment.Options{Delay: time.Millisecond})
	w := New(e.deps)
	toPayment(t, w)

	b, err := w.Complete(context.Background(), payment.MethodMercadoPago)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, b.Status)
	assert.Equal(t, models.PaymentPaid, b.PaymentStatus)
}

func TestComplete_BookedSlotIsNoLongerOffered(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, payment.Options{})

	first := New(e.deps)
	toPayment(t, first)
	second := New(e.deps)
	toPayment(t, second)

	_, err := first.Complete(ctx, payment.MethodCash)
	require.NoError(t, err)

	_, err = second.Complete(ctx, payment.MethodCash)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	third := New(e.deps)
	require.NoError(t, third.SelectService(ctx, "1"))
	require.NoError(t, third.Next(ctx))
	require.NoError(t, third.SelectDate(futureDate))
	assert.ErrorIs(t, third.SelectTime(ctx, "10:00"), ErrSlotUnavailable)
	assert.NoError(t, third.SelectTime(ctx, "10:30"))
}

func TestComplete_ConcurrentPaymentsForSameSlot(t *testing.T) {
	e := newEnv(t, payment.Options{Delay: 50 * time.Millisecond})

	wizards := []*Wizard{New(e.deps), New(e.deps)}
	for _, w := range wizards {
		toPayment(t, w)
	}

	errs := make([]error, len(wizards))
	var wg sync.WaitGroup
	for i, w := range wizards {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = w.Complete(context.Background(), payment.MethodMercadoPago)
		}()
	}
	wg.Wait()

	var failed int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrSlotUnavailable)
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	list, err := e.bookings.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, futureDate, list[0].Date)
	assert.Equal(t, "10:00", list[0].Time)
}

func TestComplete_SlotTakenWhilePayingKeepsDraft(t *testing.T) {
	e := newEnv(t, payment.Options{})
	store := new(mockBookingStore)
	store.On("TakenTimes", mock.Anything, futureDate).Return([]string(nil), nil)
	store.On("AppendIfFree", mock.Anything, mock.AnythingOfType("models.Booking")).Return(false, nil)
	e.deps.Bookings = store

	w := New(e.deps)
	toPayment(t, w)

	_, err := w.Complete(context.Background(), payment.MethodCash)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Equal(t, StepPayment, w.Step())
	store.AssertExpectations(t)
}

func TestComplete_DeclinedLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, payment.Options{FailureRate: 1, Rand: func() float64 { return 0 }})
	w := New(e.deps)
	toPayment(t, w)
	before := w.Snapshot()

	_, err := w.Complete(ctx, payment.MethodMercadoPago)
	assert.ErrorIs(t, err, payment.ErrDeclined)

	list, err := e.bookings.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, before, w.Snapshot())

	// Retry with cash is allowed.
	_, err = w.Complete(ctx, payment.MethodCash)
	assert.NoError(t, err)
}

func TestComplete_InFlightGuardAndCancel(t *testing.T) {
	e := newEnv(t, payment.Options{Delay: time.Hour})
	w := New(e.deps)
	toPayment(t, w)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = w.Complete(ctx, payment.MethodMercadoPago)
	}()

	require.Eventually(t, func() bool { return w.Snapshot().PaymentInFlight }, time.Second, time.Millisecond)

	_, err := w.Complete(context.Background(), payment.MethodCash)
	assert.ErrorIs(t, err, payment.ErrInFlight)
	assert.ErrorIs(t, w.Back(StepService), payment.ErrInFlight)

	cancel()
	wg.Wait()
	assert.ErrorIs(t, firstErr, context.Canceled)

	list, err := e.bookings.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "an abandoned payment never writes a booking")
	assert.Equal(t, StepPayment, w.Step())
	assert.False(t, w.Snapshot().PaymentInFlight)
}

type mockBookingStore struct {
	mock.Mock
}

func (m *mockBookingStore) AppendIfFree(ctx context.Context, b models.Booking) (bool, error) {
	args := m.Called(ctx, b)
	return args.Bool(0), args.Error(1)
}

func (m *mockBookingStore) TakenTimes(ctx context.Context, date string) ([]string, error) {
	args := m.Called(ctx, date)
	return args.Get(0).([]string), args.Error(1)
}

func TestComplete_StoreFailureKeepsDraft(t *testing.T) {
	e := newEnv(t, payment.Options{})
	store := new(mockBookingStore)
	store.On("TakenTimes", mock.Anything, futureDate).Return([]string(nil), nil)
	store.On("AppendIfFree", mock.Anything, mock.AnythingOfType("models.Booking")).Return(false, errors.New("disk full"))
	e.deps.Bookings = store

	w := New(e.deps)
	toPayment(t, w)

	_, err := w.Complete(context.Background(), payment.MethodCash)
	assert.Error(t, err)
	assert.Equal(t, StepPayment, w.Step())
	assert.NotNil(t, w.Snapshot().Draft.Service)
	store.AssertExpectations(t)
}

func TestGuards(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, payment.Options{})
	w := New(e.deps)

	assert.ErrorIs(t, w.Next(ctx), ErrGuard)
	assert.ErrorIs(t, w.SelectDate(futureDate), ErrWrongStep)
	assert.ErrorIs(t, w.SelectService(ctx, "missing"), catalog.ErrNotFound)
	_, err := w.Complete(ctx, payment.MethodCash)
	assert.ErrorIs(t, err, ErrWrongStep)

	require.NoError(t, w.SelectService(ctx, "2"))
	require.NoError(t, w.Next(ctx))

	assert.ErrorIs(t, w.SelectDate("2026-10-14"), ErrPastDate)
	assert.NoError(t, w.SelectDate("2026-10-15"), "today is selectable")
	assert.ErrorIs(t, w.Next(ctx), ErrGuard, "time missing")
	assert.ErrorIs(t, w.SelectTime(ctx, "13:00"), ErrSlotUnavailable, "lunch break")
	assert.ErrorIs(t, w.SelectTime(ctx, "18:00"), ErrSlotUnavailable, "closing time")

	require.NoError(t, w.SelectTime(ctx, "09:30"))
	require.NoError(t, w.SelectDate(futureDate))
	assert.Empty(t, w.Snapshot().Draft.Time, "changing the date clears the time")
}

func TestNext_CustomerValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, payment.Options{})
	w := New(e.deps)
	require.NoError(t, w.SelectService(ctx, "1"))
	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.SelectDate(futureDate))
	require.NoError(t, w.SelectTime(ctx, "11:00"))
	require.NoError(t, w.Next(ctx))

	require.NoError(t, w.SetCustomer(models.CustomerData{Name: "", Email: "bad", Phone: "123"}))
	err := w.Next(ctx)
	var fieldErrs customer.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 3)
	assert.Equal(t, StepCustomer, w.Step())

	require.NoError(t, w.SetCustomerField(customer.FieldName, "Ana"))
	snap := w.Snapshot()
	assert.NotContains(t, snap.Errors, customer.FieldName)
	assert.Contains(t, snap.Errors, customer.FieldEmail)
}

func TestBack_KeepsDraft(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, payment.Options{})
	w := New(e.deps)
	toPayment(t, w)

	require.NoError(t, w.Back(StepDateTime))
	snap := w.Snapshot()
	assert.Equal(t, StepDateTime, snap.Step)
	assert.Equal(t, futureDate, snap.Draft.Date)
	assert.Equal(t, "10:00", snap.Draft.Time)
	assert.Equal(t, validCustomer, snap.Draft.Customer)

	assert.ErrorIs(t, w.Back(StepPayment), ErrInvalidTransition)
	assert.ErrorIs(t, w.Back(StepDateTime), ErrInvalidTransition)

	require.NoError(t, w.Next(ctx))
	require.NoError(t, w.Next(ctx))
	assert.Equal(t, StepPayment, w.Step())
	assert.ErrorIs(t, w.Next(ctx), ErrInvalidTransition)
}

func TestSessions(t *testing.T) {
	e := newEnv(t, payment.Options{})
	now := testNow
	e.deps.Now = func() time.Time { return now }

	ss := NewSessions(e.deps, time.Minute)
	id, w := ss.Create()
	got, ok := ss.Get(id)
	require.True(t, ok)
	assert.Same(t, w, got)

	_, ok = ss.Get("unknown")
	assert.False(t, ok)

	idleID, _ := ss.Create()
	now = now.Add(30 * time.Second)
	require.NoError(t, w.SelectService(context.Background(), "1"))
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, ss.Cleanup())
	_, ok = ss.Get(idleID)
	assert.False(t, ok)
	_, ok = ss.Get(id)
	assert.True(t, ok)
	assert.Equal(t, 1, ss.Len())

	now = now.Add(2 * time.Minute)
	_, ok = ss.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, ss.Len())
}
