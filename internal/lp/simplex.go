package lp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

// DefaultTolerance is the numerical tolerance passed to the simplex engine
// when none is configured.
const DefaultTolerance = 1e-10

// Simplex solves problems with gonum's simplex implementation. It is safe for
// concurrent use; each Solve works on its own copy of the problem data.
type Simplex struct {
	tol float64
}

// NewSimplex returns a Simplex engine with the given tolerance. A
// non-positive tol selects DefaultTolerance.
func NewSimplex(tol float64) *Simplex {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &Simplex{tol: tol}
}

// Solve solves p. It never returns an error value: malformed input, engine
// failures, panics and context expiry are all reported as StatusError.
//
// The engine cannot be interrupted. When ctx ends first, Solve returns at once
// and the engine goroutine runs on in the background until gonum finishes;
// its result is dropped into a buffered channel, so the goroutine never blocks.
func (s *Simplex) Solve(ctx context.Context, p Problem) Outcome {
	if err := ctx.Err(); err != nil {
		return Failed(fmt.Errorf("lp: solve %s: %w", p.Name, err))
	}
	if err := p.Validate(); err != nil {
		return Failed(err)
	}

	done := make(chan Outcome, 1)
	go func() { done <- s.solve(p) }()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		return Failed(fmt.Errorf("lp: solve %s: %w", p.Name, ctx.Err()))
	}
}

func (s *Simplex) solve(p Problem) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failed(fmt.Errorf("lp: engine panic: %v", r))
		}
	}()

	sf, status := s.standardize(p)
	if status != StatusOptimal {
		return Outcome{Status: status}
	}

	y := make([]float64, sf.cols)
	if len(sf.b) > 0 {
		a := mat.NewDense(len(sf.b), sf.cols, sf.a)
		_, opt, err := gonumlp.Simplex(sf.c, a, sf.b, s.tol, nil)
		switch {
		case errors.Is(err, gonumlp.ErrInfeasible):
			return Infeasible()
		case errors.Is(err, gonumlp.ErrUnbounded):
			return Unbounded()
		case err != nil:
			return Failed(fmt.Errorf("lp: %w", err))
		}
		y = opt
	}

	x := make([]float64, len(p.Variables))
	for i, v := range p.Variables {
		x[i] = v.Lower
		if col := sf.column[i]; col >= 0 {
			x[i] += y[col]
		}
	}
	return Optimal(x, p.Evaluate(x))
}

// standardForm is minimize cᵀy subject to Ay = b, y >= 0, with b >= 0.
// a is row-major. column maps each original variable to its column, or -1
// when the variable was fixed at its lower bound.
type standardForm struct {
	c      []float64
	a      []float64
	b      []float64
	cols   int
	column []int
}

type stdRow struct {
	coeffs []float64 // over original variables
	slack  float64   // coefficient of this row's slack column, 0 for none
	rhs    float64
}

// standardize shifts every variable by its lower bound, turns inequalities
// and finite upper bounds into slack columns and drops rows and columns that
// the engine would reject as empty. It reports StatusInfeasible or
// StatusUnbounded when those reductions alone decide the problem.
func (s *Simplex) standardize(p Problem) (standardForm, Status) {
	n := len(p.Variables)

	var rows []stdRow
	for _, c := range p.Constraints {
		rhs := c.RHS
		for i, a := range c.Coeffs {
			rhs -= a * p.Variables[i].Lower
		}
		r := stdRow{coeffs: c.Coeffs, rhs: rhs}
		switch c.Sense {
		case LessEqual:
			r.slack = 1
		case GreaterEqual:
			r.slack = -1
		}
		rows = append(rows, r)
	}
	for i, v := range p.Variables {
		if math.IsInf(v.Upper, 1) {
			continue
		}
		width := v.Upper - v.Lower
		if width < -s.tol {
			return standardForm{}, StatusInfeasible
		}
		coeffs := make([]float64, n)
		coeffs[i] = 1
		rows = append(rows, stdRow{coeffs: coeffs, slack: 1, rhs: math.Max(width, 0)})
	}

	// Rows with no variable terms are either trivially satisfied or infeasible.
	kept := rows[:0]
	for _, r := range rows {
		if !allZero(r.coeffs) {
			kept = append(kept, r)
			continue
		}
		switch {
		case r.slack == 0 && math.Abs(r.rhs) > s.tol:
			return standardForm{}, StatusInfeasible
		case r.slack != 0 && r.rhs*r.slack < -s.tol:
			return standardForm{}, StatusInfeasible
		}
	}
	rows = kept

	sign := 1.0
	if p.Direction == Maximize {
		sign = -1
	}

	// Variables absent from every row only move the objective.
	sf := standardForm{column: make([]int, n)}
	for i := range p.Variables {
		used := false
		for _, r := range rows {
			if r.coeffs[i] != 0 {
				used = true
				break
			}
		}
		if !used {
			if sign*p.Objective[i] < 0 {
				return standardForm{}, StatusUnbounded
			}
			sf.column[i] = -1
			continue
		}
		sf.column[i] = sf.cols
		sf.c = append(sf.c, sign*p.Objective[i])
		sf.cols++
	}
	slackBase := sf.cols
	for _, r := range rows {
		if r.slack != 0 {
			sf.c = append(sf.c, 0)
			sf.cols++
		}
	}

	sf.a = make([]float64, len(rows)*sf.cols)
	sf.b = make([]float64, len(rows))
	slack := slackBase
	for ri, r := range rows {
		line := sf.a[ri*sf.cols : (ri+1)*sf.cols]
		for i, a := range r.coeffs {
			if col := sf.column[i]; col >= 0 {
				line[col] = a
			}
		}
		if r.slack != 0 {
			line[slack] = r.slack
			slack++
		}
		sf.b[ri] = r.rhs
		if r.rhs < 0 {
			for j := range line {
				line[j] = -line[j]
			}
			sf.b[ri] = -r.rhs
		}
	}
	return sf, StatusOptimal
}

func allZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
