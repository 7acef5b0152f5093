package solver

import (
	"fmt"
	"math"

	"github.com/arungoooo112/gismo/utils"
)

// State tracks the BiCGStab iteration through its lifecycle
type State int

const (
	Uninitialized State = iota
	Initialized
	Iterating
	Converged
	MaxIterReached
	Breakdown
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Initialized:
		return "Initialized"
	case Iterating:
		return "Iterating"
	case Converged:
		return "Converged"
	case MaxIterReached:
		return "MaxIterReached"
	case Breakdown:
		return "Breakdown"
	}
	return "Unknown"
}

// rhoRestartTol triggers the shadow-residual restart: when the current
// residual becomes nearly orthogonal to r0 the recurrence coefficients
// lose all significance, so r0 is replaced by the current residual
const rhoRestartTol = 1e-32

// BiCgStab is a preconditioned stabilized biconjugate gradient
// iteration. The system operator and the preconditioner are only
// required to implement Apply; their internals are never inspected.
type BiCgStab struct {
	A, M    LinearOperator
	Tol     float64
	MaxIter int
	Verbose bool

	state                  State
	x, res, r0, p, v       utils.Vector
	alpha, rho, w, rhsNorm float64
	relRes                 float64
	iter, restarts         int
}

func NewBiCgStab(A, M LinearOperator) *BiCgStab {
	if A.Rows() != A.Cols() {
		err := fmt.Errorf("BiCgStab requires a square system operator, got %dx%d\n", A.Rows(), A.Cols())
		panic(err)
	}
	if M.Rows() != A.Rows() || M.Cols() != A.Cols() {
		err := fmt.Errorf("preconditioner dimensions %dx%d do not match system dimensions %dx%d\n",
			M.Rows(), M.Cols(), A.Rows(), A.Cols())
		panic(err)
	}
	return &BiCgStab{
		A:       A,
		M:       M,
		Tol:     1.e-10,
		MaxIter: A.Rows(),
	}
}

// Init computes the initial residual r = b - A*x0. If x0 already meets
// the tolerance the state moves directly to Converged.
func (s *BiCgStab) Init(b, x0 utils.Vector) {
	s.x = x0.Copy()
	s.res = b.Copy().Subtract(s.A.Apply(s.x))
	s.r0 = s.res.Copy()
	s.p = utils.NewVector(s.A.Cols())
	s.v = utils.NewVector(s.A.Cols())
	s.alpha, s.rho, s.w = 1, 1, 1
	s.iter, s.restarts = 0, 0

	s.rhsNorm = b.Norm()
	if s.rhsNorm == 0 { // zero rhs, zero solution
		s.x.Set(0)
		s.relRes = 0
		s.state = Converged
		return
	}
	s.relRes = s.res.Norm() / s.rhsNorm
	if s.relRes < s.Tol {
		s.state = Converged
		return
	}
	s.state = Initialized
}

// Step advances the iteration once. It reports true when a terminal
// state (Converged, MaxIterReached, Breakdown) has been reached.
func (s *BiCgStab) Step() bool {
	switch s.state {
	case Uninitialized:
		panic("BiCgStab: Step called before Init")
	case Converged, MaxIterReached, Breakdown:
		return true
	}
	if s.iter >= s.MaxIter {
		s.state = MaxIterReached
		return true
	}
	s.state = Iterating
	s.iter++

	rhoOld := s.rho
	s.rho = s.r0.Dot(s.res)

	r0SqNorm := s.r0.Dot(s.r0)
	if math.Abs(s.rho) < rhoRestartTol*r0SqNorm {
		if s.Verbose {
			fmt.Printf("Residual too orthogonal, restart with new r0\n")
		}
		s.restarts++
		s.r0 = s.res.Copy()
		s.rho = s.r0.Dot(s.r0)
		if s.rho == 0 { // exact zero residual that still failed the tolerance
			s.state = Breakdown
			return true
		}
	}

	if s.w == 0 { // t vanished last step and the residual still failed the tolerance
		s.state = Breakdown
		return true
	}
	beta := (s.rho / rhoOld) * (s.alpha / s.w)
	// p = res + beta*(p - w*v)
	s.p.AddScaled(-s.w, s.v).Scale(beta).Add(s.res)

	y := s.M.Apply(s.p)
	s.v = s.A.Apply(y)
	r0v := s.r0.Dot(s.v)
	if r0v == 0 { // recurrence cannot continue, leave x untouched
		s.state = Breakdown
		return true
	}
	s.alpha = s.rho / r0v

	sv := s.res.Copy().AddScaled(-s.alpha, s.v)
	z := s.M.Apply(sv)
	t := s.A.Apply(z)

	tt := t.Dot(t)
	if tt > 0 {
		s.w = t.Dot(sv) / tt
	} else {
		s.w = 0
	}

	// x += alpha*y + w*z;  res = s - w*t
	s.x.AddScaled(s.alpha, y).AddScaled(s.w, z)
	s.res = sv.AddScaled(-s.w, t)

	s.relRes = s.res.Norm() / s.rhsNorm
	if s.relRes < s.Tol {
		s.state = Converged
		return true
	}
	if s.iter >= s.MaxIter {
		s.state = MaxIterReached
		return true
	}
	return false
}

func (s *BiCgStab) State() State          { return s.state }
func (s *BiCgStab) Iterations() int       { return s.iter }
func (s *BiCgStab) Restarts() int         { return s.restarts }
func (s *BiCgStab) ResidualNorm() float64 { return s.relRes }
func (s *BiCgStab) Solution() utils.Vector {
	return s.x
}

// Result carries the outcome of a Solve call
type Result struct {
	Solution     utils.Vector
	Converged    bool
	Iterations   int
	ResidualNorm float64
	State        State
}

// ConvergenceError reports an exhausted iteration budget or a
// persistent breakdown. The caller decides whether this is fatal; the
// returned solution is the best iterate so far and contains no invalid
// values.
type ConvergenceError struct {
	State        State
	Iterations   int
	ResidualNorm float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("solver did not converge: state %v after %d iterations, relative residual %g",
		e.State, e.Iterations, e.ResidualNorm)
}

// Solve runs a preconditioned BiCGStab iteration to completion.
// A and M are the system operator and preconditioner; pass
// NewIdentityOp for an unpreconditioned solve.
func Solve(A, M LinearOperator, b, x0 utils.Vector, tol float64, maxIter int) (Result, error) {
	s := NewBiCgStab(A, M)
	s.Tol = tol
	s.MaxIter = maxIter
	s.Init(b, x0)
	for !s.Step() {
	}
	res := Result{
		Solution:     s.Solution(),
		Converged:    s.State() == Converged,
		Iterations:   s.Iterations(),
		ResidualNorm: s.ResidualNorm(),
		State:        s.State(),
	}
	if !res.Converged {
		return res, &ConvergenceError{State: res.State, Iterations: res.Iterations, ResidualNorm: res.ResidualNorm}
	}
	return res, nil
}
