package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"barbershop/internal/calendar"
	"barbershop/internal/customer"
	"barbershop/internal/format"
	"barbershop/internal/metrics"
	"barbershop/internal/models"
	"barbershop/internal/payment"
	"barbershop/internal/slots"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrGuard             = errors.New("step requirements not met")
	ErrWrongStep         = errors.New("operation not allowed in current step")
	ErrInvalidTransition = errors.New("invalid step transition")
	ErrPastDate          = errors.New("date is in the past")
	ErrSlotUnavailable   = errors.New("time slot is not available")
)

// Catalog looks up services by id.
type Catalog interface {
	Get(ctx context.Context, id string) (models.Service, error)
}

// SlotSource returns the day's slot list.
type SlotSource interface {
	Slots(ctx context.Context) ([]models.TimeSlot, error)
}

// BookingStore persists finalized bookings. AppendIfFree stores b only when
// its date and time are not already booked and reports whether it did.
type BookingStore interface {
	AppendIfFree(ctx context.Context, b models.Booking) (bool, error)
	TakenTimes(ctx context.Context, date string) ([]string, error)
}

// Payments starts payment attempts.
type Payments interface {
	Start(ctx context.Context, method string, amount int) (*payment.Task, error)
}

// Deps are the collaborators shared by every wizard.
type Deps struct {
	Catalog  Catalog
	Slots    SlotSource
	Bookings BookingStore
	Payments Payments
	Logger   *zerolog.Logger
	Now      func() time.Time
}

// Draft is the data collected so far.
type Draft struct {
	Service  *models.Service     `json:"service,omitempty"`
	Date     string              `json:"date,omitempty"`
	Time     string              `json:"time,omitempty"`
	Customer models.CustomerData `json:"customer"`
}

// Summary is the presentation of a draft shown before paying.
type Summary struct {
	Service string `json:"service"`
	Price   string `json:"price"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Phone   string `json:"phone,omitempty"`
}

// Snapshot is a consistent copy of the wizard state.
type Snapshot struct {
	Step            Step                 `json:"step"`
	StepNumber      int                  `json:"stepNumber"`
	Draft           Draft                `json:"draft"`
	Errors          customer.FieldErrors `json:"errors,omitempty"`
	PaymentInFlight bool                 `json:"paymentInFlight"`
	Summary         *Summary             `json:"summary,omitempty"`
}

// Wizard is one customer's booking flow. It is safe for concurrent use.
type Wizard struct {
	mu        sync.Mutex
	fsm       *FSM
	step      Step
	draft     Draft
	form      *customer.Form
	guard     payment.Guard
	deps      Deps
	updatedAt time.Time
}

func New(deps Deps) *Wizard {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		nop := zerolog.Nop()
		deps.Logger = &nop
	}
	w := &Wizard{fsm: NewFSM(), deps: deps}
	w.reset()
	return w
}

func (w *Wizard) reset() {
	w.step = StepService
	w.draft = Draft{}
	w.form = customer.NewForm(models.CustomerData{})
	w.updatedAt = w.deps.Now()
}

// lock acquires the wizard for a mutation. Mutations are refused while a
// payment is running.
func (w *Wizard) lock() error {
	w.mu.Lock()
	if w.guard.InFlight() {
		w.mu.Unlock()
		return payment.ErrInFlight
	}
	w.updatedAt = w.deps.Now()
	return nil
}

func (w *Wizard) requireStep(s Step) error {
	if w.step != s {
		return fmt.Errorf("%w: in %s, need %s", ErrWrongStep, w.step, s)
	}
	return nil
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Snapshot returns the current state.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	d := w.draft
	if d.Service != nil {
		svc := *d.Service
		d.Service = &svc
	}
	d.Customer = w.form.Data()

	snap := Snapshot{
		Step:            w.step,
		StepNumber:      w.step.Number(),
		Draft:           d,
		PaymentInFlight: w.guard.InFlight(),
	}
	if errs := w.form.Errors(); len(errs) > 0 {
		snap.Errors = errs
	}
	if d.Service != nil && d.Date != "" && d.Time != "" {
		snap.Summary = &Summary{
			Service: d.Service.Name,
			Price:   format.Price(d.Service.Price),
			Date:    format.LongDate(d.Date),
			Time:    d.Time,
		}
		if d.Customer.Phone != "" {
			snap.Summary.Phone = format.Phone(d.Customer.Phone)
		}
	}
	return snap
}

// IsExpired reports whether the wizard has been idle longer than timeout.
func (w *Wizard) IsExpired(timeout time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.guard.InFlight() {
		return false
	}
	return w.deps.Now().Sub(w.updatedAt) > timeout
}

// SelectService picks the service to book.
func (w *Wizard) SelectService(ctx context.Context, id string) error {
	if err := w.lock(); err != nil {
		return err
	}
	defer w.mu.Unlock()

	if err := w.requireStep(StepService); err != nil {
		return err
	}
	svc, err := w.deps.Catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	w.draft.Service = &svc
	return nil
}

// SelectDate picks the appointment date (YYYY-MM-DD). Past days are
// refused. Changing the date clears the selected time.
func (w *Wizard) SelectDate(date string) error {
	if err := w.lock(); err != nil {
		return err
	}
	defer w.mu.Unlock()

	if err := w.requireStep(StepDateTime); err != nil {
		return err
	}
	if !calendar.Selectable(date, w.deps.Now()) {
		return fmt.Errorf("%w: %s", ErrPastDate, date)
	}
	if date != w.draft.Date {
		w.draft.Time = ""
	}
	w.draft.Date = date
	return nil
}

// SelectTime picks a start time offered for the selected date.
func (w *Wizard) SelectTime(ctx context.Context, t string) error {
	if err := w.lock(); err != nil {
		return err
	}
	defer w.mu.Unlock()

	if err := w.requireStep(StepDateTime); err != nil {
		return err
	}
	if w.draft.Date == "" {
		return fmt.Errorf("%w: select a date first", ErrGuard)
	}

	list, err := w.slotsFor(ctx, w.draft.Date)
	if err != nil {
		return err
	}
	if !slots.Contains(list, t) {
		return fmt.Errorf("%w: %s", ErrSlotUnavailable, t)
	}
	w.draft.Time = t
	return nil
}

// AvailableSlots returns the slot list for date with already booked times
// marked unavailable.
func (w *Wizard) AvailableSlots(ctx context.Context, date string) ([]models.TimeSlot, error) {
	return w.slotsFor(ctx, date)
}

func (w *Wizard) slotsFor(ctx context.Context, date string) ([]models.TimeSlot, error) {
	list, err := w.deps.Slots.Slots(ctx)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	taken, err := w.deps.Bookings.TakenTimes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	return slots.MarkBooked(list, taken), nil
}

// SetCustomerField edits one customer field and clears its error.
func (w *Wizard) SetCustomerField(field, value string) error {
	if err := w.lock(); err != nil {
		return err
	}
	defer w.mu.Unlock()

	if err := w.requireStep(StepCustomer); err != nil {
		return err
	}
	return w.form.Set(field, value)
}

// SetCustomer replaces all customer fields.
func (w *Wizard) SetCustomer(data models.CustomerData) error {
	if err := w.lock(); err != nil {
		return err
	}
	defer w.mu.Unlock()

	if err := w.requireStep(StepCustomer); err != nil {
		return err
	}
	for field, value := range map[string]string{
		customer.FieldName:  data.Name,
		customer.FieldEmail: data.Email,
		customer.FieldPhone: data.Phone,
	} {
		if err := w.form.Set(field, value); err != nil {
			return err
		}
	}
	return nil
}

// Next advances one step when the current step's requirements hold. On the
// customer step a failed validation returns customer.FieldErrors.
func (w *Wizard) Next(ctx context.Context) error {
	if err := w.lock(); err != nil {
		return err
	}
	defer w.mu.Unlock()

	to, ok := w.fsm.next(w.step)
	if !ok {
		return fmt.Errorf("%w: %s is the last step", ErrInvalidTransition, w.step)
	}

	switch w.step {
	case StepService:
		if w.draft.Service == nil {
			return fmt.Errorf("%w: select a service", ErrGuard)
		}
	case StepDateTime:
		if w.draft.Date == "" || w.draft.Time == "" {
			return fmt.Errorf("%w: select a date and a time", ErrGuard)
		}
		if !calendar.Selectable(w.draft.Date, w.deps.Now()) {
			return fmt.Errorf("%w: %s", ErrPastDate, w.draft.Date)
		}
	case StepCustomer:
		data, errs := w.form.Submit()
		if len(errs) > 0 {
			return errs
		}
		w.draft.Customer = data
	}

	w.step = to
	return nil
}

// Back returns to an earlier step keeping the draft.
func (w *Wizard) Back(to Step) error {
	if err := w.lock(); err != nil {
		return err
	}
	defer w.mu.Unlock()

	if to.Number() >= w.step.Number() || !w.fsm.CanTransition(w.step, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, w.step, to)
	}
	w.step = to
	return nil
}

// Complete runs the payment and, when it succeeds, stores the booking and
// restarts the wizard. Any failure leaves the draft and the store as they
// were. Only one attempt may run at a time.
func (w *Wizard) Complete(ctx context.Context, method string) (models.Booking, error) {
	w.mu.Lock()
	if err := w.requireStep(StepPayment); err != nil {
		w.mu.Unlock()
		return models.Booking{}, err
	}
	release, err := w.guard.Acquire()
	if err != nil {
		w.mu.Unlock()
		return models.Booking{}, err
	}
	defer release()

	draft := w.draft
	svc := *draft.Service
	w.updatedAt = w.deps.Now()
	w.mu.Unlock()

	list, err := w.slotsFor(ctx, draft.Date)
	if err != nil {
		return models.Booking{}, err
	}
	if !slots.Contains(list, draft.Time) {
		return models.Booking{}, fmt.Errorf("%w: %s %s", ErrSlotUnavailable, draft.Date, draft.Time)
	}

	task, err := w.deps.Payments.Start(ctx, method, svc.Price)
	if err != nil {
		return models.Booking{}, err
	}
	res, err := task.Wait(ctx)
	if err != nil {
		w.deps.Logger.Warn().Err(err).Str("method", method).Msg("payment failed")
		return models.Booking{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.Booking{}, fmt.Errorf("generate booking id: %w", err)
	}

	b := models.Booking{
		ID:            id.String(),
		CustomerName:  draft.Customer.Name,
		CustomerEmail: draft.Customer.Email,
		CustomerPhone: draft.Customer.Phone,
		Service:       svc,
		Date:          draft.Date,
		Time:          draft.Time,
		Status:        res.BookingStatus,
		PaymentStatus: res.PaymentStatus,
		CreatedAt:     w.deps.Now().UTC().Format(time.RFC3339),
	}
	stored, err := w.deps.Bookings.AppendIfFree(ctx, b)
	if err != nil {
		return models.Booking{}, fmt.Errorf("save booking: %w", err)
	}
	if !stored {
		w.deps.Logger.Warn().
			Str("method", method).
			Str("reference", res.Reference).
			Msg("slot taken while paying, booking not stored")
		return models.Booking{}, fmt.Errorf("%w: %s %s", ErrSlotUnavailable, draft.Date, draft.Time)
	}
	metrics.IncBookingCreated(method, b.PaymentStatus)

	w.mu.Lock()
	w.reset()
	w.mu.Unlock()
	return b, nil
}
