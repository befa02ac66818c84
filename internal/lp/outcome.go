package lp

// Status tags the result of a solve.
type Status int

const (
	StatusOptimal    Status = iota // feasible, bounded, optimal assignment found
	StatusInfeasible               // no assignment satisfies the constraints
	StatusUnbounded                // objective can improve without limit
	StatusError                    // engine failure, timeout, or malformed input
)

// String returns the status name used in reports and telemetry.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "error"
	}
}

// Outcome is the tagged result of solving a Problem. Values and Objective are
// meaningful only when Status is StatusOptimal; Err is set only for StatusError.
type Outcome struct {
	Status    Status
	Values    []float64
	Objective float64
	Err       error
}

// Optimal builds an optimal outcome.
func Optimal(values []float64, objective float64) Outcome {
	return Outcome{Status: StatusOptimal, Values: values, Objective: objective}
}

// Infeasible builds an infeasible outcome.
func Infeasible() Outcome {
	return Outcome{Status: StatusInfeasible}
}

// Unbounded builds an unbounded outcome.
func Unbounded() Outcome {
	return Outcome{Status: StatusUnbounded}
}

// Failed builds an error outcome carrying the reason.
func Failed(err error) Outcome {
	return Outcome{Status: StatusError, Err: err}
}

// Reason returns a short explanation for a non-optimal outcome.
func (o Outcome) Reason() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return o.Status.String()
}
