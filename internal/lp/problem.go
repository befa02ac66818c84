// Package lp defines the contract between the allocation search and a linear
// program engine: problems in bounded general form go in, tagged outcomes come
// out. Simplex is the engine implementation, backed by gonum.
package lp

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedProblem indicates a problem whose dimensions or bounds are inconsistent.
var ErrMalformedProblem = errors.New("malformed linear program")

// Direction selects whether the objective is maximized or minimized.
type Direction int

const (
	Maximize Direction = iota // maximize the objective
	Minimize                  // minimize the objective
)

// String returns the lowercase direction name.
func (d Direction) String() string {
	if d == Minimize {
		return "minimize"
	}
	return "maximize"
}

// Sense is the relation between a constraint's left-hand side and its RHS.
type Sense int

const (
	LessEqual    Sense = iota // Σ a·x <= rhs
	Equal                     // Σ a·x == rhs
	GreaterEqual              // Σ a·x >= rhs
)

// String returns the relational operator for s.
func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	default:
		return "=="
	}
}

// Variable is a continuous decision variable with bounds. Lower must be
// finite; Upper may be math.Inf(1) for no upper bound.
type Variable struct {
	Name  string
	Lower float64
	Upper float64
}

// Constraint is a single linear constraint over all problem variables. Coeffs
// is indexed like Problem.Variables.
type Constraint struct {
	Name   string
	Coeffs []float64
	Sense  Sense
	RHS    float64
}

// Problem is a linear program in bounded general form.
type Problem struct {
	Name        string
	Direction   Direction
	Objective   []float64
	Variables   []Variable
	Constraints []Constraint
}

// Validate checks dimensions and bounds.
func (p Problem) Validate() error {
	n := len(p.Variables)
	if n == 0 {
		return fmt.Errorf("%w: no variables", ErrMalformedProblem)
	}
	if len(p.Objective) != n {
		return fmt.Errorf("%w: objective has %d coefficients for %d variables", ErrMalformedProblem, len(p.Objective), n)
	}
	for _, v := range p.Variables {
		if math.IsInf(v.Lower, 0) || math.IsNaN(v.Lower) {
			return fmt.Errorf("%w: variable %s needs a finite lower bound", ErrMalformedProblem, v.Name)
		}
		if math.IsNaN(v.Upper) {
			return fmt.Errorf("%w: variable %s has NaN upper bound", ErrMalformedProblem, v.Name)
		}
	}
	for _, c := range p.Constraints {
		if len(c.Coeffs) != n {
			return fmt.Errorf("%w: constraint %s has %d coefficients for %d variables", ErrMalformedProblem, c.Name, len(c.Coeffs), n)
		}
	}
	return nil
}

// Evaluate returns the objective value at x.
func (p Problem) Evaluate(x []float64) float64 {
	var sum float64
	for i, c := range p.Objective {
		sum += c * x[i]
	}
	return sum
}
