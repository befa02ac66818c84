package lp

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

const eps = 1e-7

func approx(a, b float64) bool {
	return math.Abs(a-b) <= eps
}

func twoCropProblem(c1, c2, total, lower float64) Problem {
	inf := math.Inf(1)
	return Problem{
		Name:      "pair",
		Direction: Maximize,
		Objective: []float64{c1, c2},
		Variables: []Variable{
			{Name: "x1", Lower: lower, Upper: inf},
			{Name: "x2", Lower: lower, Upper: inf},
		},
		Constraints: []Constraint{
			{Name: "area", Coeffs: []float64{1, 1}, Sense: Equal, RHS: total},
		},
	}
}

func TestSimplex_TwoCropVertex(t *testing.T) {
	t.Parallel()

	out := NewSimplex(0).Solve(context.Background(), twoCropProblem(750, 600, 100, 1))
	if out.Status != StatusOptimal {
		t.Fatalf("status = %v (%v), want optimal", out.Status, out.Err)
	}
	if !approx(out.Values[0], 99) || !approx(out.Values[1], 1) {
		t.Errorf("values = %v, want [99 1]", out.Values)
	}
	if !approx(out.Objective, 74850) {
		t.Errorf("objective = %v, want 74850", out.Objective)
	}
}

func TestSimplex_SecondVariableWins(t *testing.T) {
	t.Parallel()

	out := NewSimplex(0).Solve(context.Background(), twoCropProblem(100, 900, 50, 1))
	if out.Status != StatusOptimal {
		t.Fatalf("status = %v (%v)", out.Status, out.Err)
	}
	if !approx(out.Values[0], 1) || !approx(out.Values[1], 49) {
		t.Errorf("values = %v, want [1 49]", out.Values)
	}
	if !approx(out.Values[0]+out.Values[1], 50) {
		t.Errorf("sum = %v, want 50", out.Values[0]+out.Values[1])
	}
}

func TestSimplex_NegativeDensities(t *testing.T) {
	t.Parallel()

	// Both crops lose money; the optimum loses the least.
	out := NewSimplex(0).Solve(context.Background(), twoCropProblem(-10, -40, 100, 1))
	if out.Status != StatusOptimal {
		t.Fatalf("status = %v (%v)", out.Status, out.Err)
	}
	if !approx(out.Values[0], 99) || !approx(out.Objective, -990-40) {
		t.Errorf("values = %v objective = %v", out.Values, out.Objective)
	}
}

func TestSimplex_Infeasible(t *testing.T) {
	t.Parallel()

	// Lower bounds of 60 each cannot fit in 100.
	out := NewSimplex(0).Solve(context.Background(), twoCropProblem(1, 1, 100, 60))
	if out.Status != StatusInfeasible {
		t.Fatalf("status = %v (%v), want infeasible", out.Status, out.Err)
	}
}

func TestSimplex_Unbounded(t *testing.T) {
	t.Parallel()

	p := Problem{
		Name:      "open",
		Direction: Maximize,
		Objective: []float64{1, 1},
		Variables: []Variable{
			{Name: "x1", Lower: 0, Upper: math.Inf(1)},
			{Name: "x2", Lower: 0, Upper: math.Inf(1)},
		},
		Constraints: []Constraint{
			{Name: "floor", Coeffs: []float64{1, 1}, Sense: GreaterEqual, RHS: 1},
		},
	}
	out := NewSimplex(0).Solve(context.Background(), p)
	if out.Status != StatusUnbounded {
		t.Fatalf("status = %v (%v), want unbounded", out.Status, out.Err)
	}
}

func TestSimplex_UnconstrainedVariable(t *testing.T) {
	t.Parallel()

	inf := math.Inf(1)
	p := Problem{
		Direction: Maximize,
		Objective: []float64{1, 0},
		Variables: []Variable{{Name: "x1", Lower: 0, Upper: inf}, {Name: "x2", Lower: 0, Upper: inf}},
	}
	if out := NewSimplex(0).Solve(context.Background(), p); out.Status != StatusUnbounded {
		t.Errorf("status = %v, want unbounded", out.Status)
	}

	p.Direction = Minimize
	out := NewSimplex(0).Solve(context.Background(), p)
	if out.Status != StatusOptimal || !approx(out.Objective, 0) {
		t.Errorf("minimize: status = %v objective = %v", out.Status, out.Objective)
	}
}

func TestSimplex_UpperBoundsAndInequalities(t *testing.T) {
	t.Parallel()

	p := Problem{
		Direction: Maximize,
		Objective: []float64{3, 2},
		Variables: []Variable{
			{Name: "x1", Lower: 0, Upper: 4},
			{Name: "x2", Lower: 0, Upper: math.Inf(1)},
		},
		Constraints: []Constraint{
			{Name: "cap", Coeffs: []float64{1, 1}, Sense: LessEqual, RHS: 10},
		},
	}
	out := NewSimplex(0).Solve(context.Background(), p)
	if out.Status != StatusOptimal {
		t.Fatalf("status = %v (%v)", out.Status, out.Err)
	}
	if !approx(out.Values[0], 4) || !approx(out.Values[1], 6) || !approx(out.Objective, 24) {
		t.Errorf("values = %v objective = %v, want [4 6] 24", out.Values, out.Objective)
	}
}

func TestSimplex_UpperBelowLower(t *testing.T) {
	t.Parallel()

	p := twoCropProblem(1, 1, 10, 1)
	p.Variables[0].Upper = 0.5
	if out := NewSimplex(0).Solve(context.Background(), p); out.Status != StatusInfeasible {
		t.Errorf("status = %v, want infeasible", out.Status)
	}
}

func TestSimplex_MalformedProblem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    Problem
	}{
		{"no variables", Problem{}},
		{"objective length", Problem{Objective: []float64{1}, Variables: []Variable{{}, {}}}},
		{"constraint length", Problem{
			Objective:   []float64{1},
			Variables:   []Variable{{Upper: 1}},
			Constraints: []Constraint{{Coeffs: []float64{1, 1}}},
		}},
		{"free variable", Problem{Objective: []float64{1}, Variables: []Variable{{Lower: math.Inf(-1)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := NewSimplex(0).Solve(context.Background(), tt.p)
			if out.Status != StatusError || !errors.Is(out.Err, ErrMalformedProblem) {
				t.Errorf("got %v (%v), want error wrapping ErrMalformedProblem", out.Status, out.Err)
			}
		})
	}
}

func TestSimplex_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	out := NewSimplex(0).Solve(ctx, twoCropProblem(750, 600, 100, 1))
	if out.Status != StatusError || !errors.Is(out.Err, context.DeadlineExceeded) {
		t.Errorf("got %v (%v), want deadline error", out.Status, out.Err)
	}
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	want := map[Status]string{
		StatusOptimal:    "optimal",
		StatusInfeasible: "infeasible",
		StatusUnbounded:  "unbounded",
		StatusError:      "error",
	}
	for s, name := range want {
		if s.String() != name {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), name)
		}
	}
}
