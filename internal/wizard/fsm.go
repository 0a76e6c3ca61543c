// Package wizard implements the multi-step booking flow: service, date and
// time, customer details, payment.
package wizard

// Step of the booking flow.
type Step string

const (
	StepService  Step = "service"
	StepDateTime Step = "datetime"
	StepCustomer Step = "customer"
	StepPayment  Step = "payment"
)

var stepOrder = map[Step]int{
	StepService:  1,
	StepDateTime: 2,
	StepCustomer: 3,
	StepPayment:  4,
}

// Number returns the 1-based position of s, 0 for unknown steps.
func (s Step) Number() int {
	return stepOrder[s]
}

// ParseStep returns the step named s.
func ParseStep(s string) (Step, bool) {
	step := Step(s)
	_, ok := stepOrder[step]
	return step, ok
}

// FSM holds the allowed step transitions: forward to the next step only,
// back to any earlier step.
type FSM struct {
	transitions map[Step][]Step
}

func NewFSM() *FSM {
	return &FSM{
		transitions: map[Step][]Step{
			StepService:  {StepDateTime},
			StepDateTime: {StepCustomer, StepService},
			StepCustomer: {StepPayment, StepDateTime, StepService},
			StepPayment:  {StepCustomer, StepDateTime, StepService},
		},
	}
}

// CanTransition checks if transition is allowed.
func (f *FSM) CanTransition(from, to Step) bool {
	for _, s := range f.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// next returns the forward transition from s.
func (f *FSM) next(s Step) (Step, bool) {
	for _, to := range f.transitions[s] {
		if to.Number() == s.Number()+1 {
			return to, true
		}
	}
	return "", false
}
