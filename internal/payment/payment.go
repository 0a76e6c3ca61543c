// Package payment simulates the checkout step. No money moves: the
// "mercadopago" gateway only waits and approves (or declines on injected
// failures), and cash is settled at the shop.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"barbershop/internal/metrics"
	"barbershop/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Payment methods.
const (
	MethodMercadoPago = "mercadopago"
	MethodCash        = "cash"
)

var (
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrDeclined      = errors.New("payment declined")
	ErrInFlight      = errors.New("payment already in progress")
)

// ValidMethod reports whether m is a supported payment method.
func ValidMethod(m string) bool {
	return m == MethodMercadoPago || m == MethodCash
}

// Result is the outcome of a successful attempt, expressed as the booking
// and payment status the new booking must carry.
type Result struct {
	Method        string `json:"method"`
	Reference     string `json:"reference"`
	BookingStatus string `json:"bookingStatus"`
	PaymentStatus string `json:"paymentStatus"`
}

// Options configure the simulated gateway.
type Options struct {
	Delay       time.Duration
	FailureRate float64        // 0..1, probability of a declined card payment
	Rand        func() float64 // defaults to math/rand/v2
}

// Processor starts payment attempts.
type Processor struct {
	opts   Options
	logger *zerolog.Logger
}

func NewProcessor(opts Options, logger *zerolog.Logger) *Processor {
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	l := logger.With().Str("component", "payment").Logger()
	return &Processor{opts: opts, logger: &l}
}

// Start launches an attempt for amount using method. Cancelling ctx aborts
// the attempt.
func (p *Processor) Start(ctx context.Context, method string, amount int) (*Task, error) {
	if !ValidMethod(method) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t := &Task{
		Method: method,
		Amount: amount,
		status: StatusPending,
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go p.run(taskCtx, t)
	return t, nil
}

func (p *Processor) run(ctx context.Context, t *Task) {
	defer t.cancel()
	started := time.Now()

	res, err := p.charge(ctx, t.Method)

	outcome := "approved"
	switch {
	case errors.Is(err, ErrDeclined):
		outcome = "declined"
	case err != nil:
		outcome = "cancelled"
	}
	metrics.ObservePayment(t.Method, outcome, time.Since(started))

	p.logger.Info().
		Str("method", t.Method).
		Int("amount", t.Amount).
		Str("outcome", outcome).
		Dur("took", time.Since(started)).
		Msg("payment attempt finished")

	t.finish(res, err)
}

func (p *Processor) charge(ctx context.Context, method string) (Result, error) {
	if method == MethodCash {
		return Result{
			Method:        method,
			Reference:     "cash-" + uuid.NewString(),
			BookingStatus: models.StatusConfirmed,
			PaymentStatus: models.PaymentPending,
		}, nil
	}

	if p.opts.Delay > 0 {
		timer := time.NewTimer(p.opts.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if p.opts.FailureRate > 0 && p.opts.Rand() < p.opts.FailureRate {
		return Result{}, ErrDeclined
	}

	return Result{
		Method:        method,
		Reference:     "mp-" + uuid.NewString(),
		BookingStatus: models.StatusConfirmed,
		PaymentStatus: models.PaymentPaid,
	}, nil
}

// Guard allows a single attempt at a time.
type Guard struct {
	mu   sync.Mutex
	busy bool
}

// Acquire marks an attempt as in flight. The returned func releases it.
func (g *Guard) Acquire() (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return nil, ErrInFlight
	}
	g.busy = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.busy = false
			g.mu.Unlock()
		})
	}, nil
}

// InFlight reports whether an attempt currently holds the guard.
func (g *Guard) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}
