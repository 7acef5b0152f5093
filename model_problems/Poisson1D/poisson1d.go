package Poisson1D

import (
	"fmt"
	"math"

	"github.com/arungoooo112/gismo/ieti"
	"github.com/arungoooo112/gismo/solver"
	"github.com/arungoooo112/gismo/utils"
)

/*
1-D reaction-diffusion model problem for the IETI machinery:

	-u'' + u = f   on (0,1),   u(0) = u(1) = 0

discretized with P1 finite elements and decomposed into K subdomains of
N elements each. Each interior interface node is duplicated between its
two subdomains and tied back together by one Lagrange multiplier. The
reaction term keeps every local matrix positive definite without
boundary conditions, so floating subdomains need no extra treatment.

The manufactured solution is u(x) = sin(pi*x) with
f(x) = (1+pi^2) sin(pi*x).
*/

type Subdomain struct {
	A     utils.CSR    // local stiffness (+mass) matrix
	B     utils.CSR    // jump matrix, rows = K-1 multipliers
	F     utils.Vector // local load vector
	Nodes utils.Index  // global node index per local dof
	solve *solver.CholeskySolveOp
}

type Problem struct {
	K, N int     // subdomains, elements per subdomain
	H    float64 // mesh width
	Subs []Subdomain
}

func uExact(x float64) float64 { return math.Sin(math.Pi * x) }

func fRHS(x float64) float64 { return (1 + math.Pi*math.Pi) * math.Sin(math.Pi*x) }

// New assembles the decomposed problem. K must be at least 2 so that a
// multiplier space exists; N at least 1.
func New(K, N int) (*Problem, error) {
	if K < 2 {
		return nil, fmt.Errorf("need at least 2 subdomains, got %d", K)
	}
	if N < 1 {
		return nil, fmt.Errorf("need at least 1 element per subdomain, got %d", N)
	}
	p := &Problem{
		K: K,
		N: N,
		H: 1 / float64(K*N),
	}
	nMult := K - 1
	lastNode := K * N // global Dirichlet node, dropped along with node 0

	for k := 0; k < K; k++ {
		// free local nodes: subdomain k spans global nodes k*N .. (k+1)*N,
		// with the two global Dirichlet ends removed
		lo, hi := k*N, (k+1)*N
		if k == 0 {
			lo = 1
		}
		if k == K-1 {
			hi = lastNode - 1
		}
		nodes := utils.NewRange(lo, hi)
		local := make(map[int]int, nodes.Len())
		for i, g := range nodes {
			local[g] = i
		}

		a := utils.NewDOK(nodes.Len(), nodes.Len())
		f := utils.NewVector(nodes.Len())
		h := p.H
		for e := k * N; e < (k+1)*N; e++ {
			// element e spans nodes e..e+1; P1 stiffness 1/h [1 -1; -1 1]
			// plus mass h/6 [2 1; 1 2], trapezoidal load h/2 per node
			n0, n1 := e, e+1
			i0, ok0 := local[n0]
			i1, ok1 := local[n1]
			if ok0 {
				a.Accumulate(i0, i0, 1/h+2*h/6)
				f.SetVec(i0, f.AtVec(i0)+h/2*fRHS(float64(n0)*h))
			}
			if ok1 {
				a.Accumulate(i1, i1, 1/h+2*h/6)
				f.SetVec(i1, f.AtVec(i1)+h/2*fRHS(float64(n1)*h))
			}
			if ok0 && ok1 {
				a.Accumulate(i0, i1, -1/h+h/6)
				a.Accumulate(i1, i0, -1/h+h/6)
			}
		}

		// one multiplier per interior interface: B enforces
		// u_k(right end) - u_{k+1}(left end) = 0
		b := utils.NewDOK(nMult, nodes.Len())
		if k < K-1 {
			b.Set(k, local[(k+1)*N], 1)
		}
		if k > 0 {
			b.Set(k-1, local[k*N], -1)
		}

		aCSR := a.ToCSR()
		chol, err := solver.NewCholeskySolveOp(aCSR.ToSym())
		if err != nil {
			return nil, fmt.Errorf("subdomain %d local matrix: %v", k, err)
		}
		p.Subs = append(p.Subs, Subdomain{
			A:     aCSR,
			B:     b.ToCSR(),
			F:     f,
			Nodes: nodes,
			solve: chol,
		})
	}
	return p, nil
}

func (p *Problem) NLagrangeMultipliers() int { return p.K - 1 }

// DualOperator returns the IETI multiplier system
//
//	F = sum_k B_k A_k⁻¹ B_kᵀ
//
// applied through the prefactored local Cholesky solves
func (p *Problem) DualOperator() solver.LinearOperator {
	return &dualOp{p}
}

type dualOp struct{ p *Problem }

func (d *dualOp) Rows() int { return d.p.NLagrangeMultipliers() }
func (d *dualOp) Cols() int { return d.p.NLagrangeMultipliers() }

func (d *dualOp) Apply(lambda utils.Vector) utils.Vector {
	R := utils.NewVector(d.Rows())
	for k := range d.p.Subs {
		sub := &d.p.Subs[k]
		R.Add(sub.B.MulVec(sub.solve.Apply(sub.B.MulVecT(lambda))))
	}
	return R
}

// DualRHS returns d = sum_k B_k A_k⁻¹ f_k
func (p *Problem) DualRHS() utils.Vector {
	R := utils.NewVector(p.NLagrangeMultipliers())
	for k := range p.Subs {
		sub := &p.Subs[k]
		R.Add(sub.B.MulVec(sub.solve.Apply(sub.F)))
	}
	return R
}

// Interfaces lists the interior interfaces in terms of skeleton-dof
// positions, as SetupDeluxeScaling consumes them
func (p *Problem) Interfaces() []ieti.Interface {
	ifaces := make([]ieti.Interface, 0, p.K-1)
	for k := 0; k < p.K-1; k++ {
		// skeleton dofs are sorted by local index, so the right-end
		// interface dof sits at position 0 for the first subdomain and
		// position 1 for interior ones; the left end is always position 0
		right := 0
		if k > 0 {
			right = 1
		}
		ifaces = append(ifaces, ieti.Interface{
			K1:    k,
			K2:    k + 1,
			Dofs1: utils.Index{right},
			Dofs2: utils.Index{0},
		})
	}
	return ifaces
}

// BuildPreconditioner assembles the scaled Dirichlet preconditioner for
// the dual system. scaling selects the policy: "multiplicity",
// "deluxe", or "none" for an identity preconditioner.
func (p *Problem) BuildPreconditioner(scaling string) (solver.LinearOperator, error) {
	if scaling == "none" {
		return solver.NewIdentityOp(p.NLagrangeMultipliers()), nil
	}
	var prec ieti.ScaledDirichletPrec
	prec.Reserve(p.K)
	for k := range p.Subs {
		if err := prec.AddSubdomainMatrix(p.Subs[k].B, p.Subs[k].A); err != nil {
			return nil, err
		}
	}
	switch scaling {
	case "multiplicity":
		if err := prec.SetupMultiplicityScaling(); err != nil {
			return nil, err
		}
	case "deluxe":
		if err := prec.SetupDeluxeScaling(p.Interfaces()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown scaling policy %q", scaling)
	}
	return prec.Preconditioner()
}

// Recover computes the local solutions u_k = A_k⁻¹ (f_k - B_kᵀ lambda)
func (p *Problem) Recover(lambda utils.Vector) []utils.Vector {
	locals := make([]utils.Vector, p.K)
	for k := range p.Subs {
		sub := &p.Subs[k]
		rhs := sub.F.Copy().Subtract(sub.B.MulVecT(lambda))
		locals[k] = sub.solve.Apply(rhs)
	}
	return locals
}

// GlobalSolution gathers the local solutions onto the free global
// nodes 1..K*N-1, averaging the duplicated interface values
func (p *Problem) GlobalSolution(locals []utils.Vector) utils.Vector {
	n := p.K*p.N - 1
	sum := utils.NewVector(n)
	count := make([]float64, n)
	for k := range p.Subs {
		for i, g := range p.Subs[k].Nodes {
			sum.SetVec(g-1, sum.AtVec(g-1)+locals[k].AtVec(i))
			count[g-1]++
		}
	}
	for i := 0; i < n; i++ {
		sum.SetVec(i, sum.AtVec(i)/count[i])
	}
	return sum
}

// Exact samples the manufactured solution at the free global nodes
func (p *Problem) Exact() utils.Vector {
	n := p.K*p.N - 1
	R := utils.NewVector(n)
	for i := 0; i < n; i++ {
		R.SetVec(i, uExact(float64(i+1)*p.H))
	}
	return R
}

// RunResult is what the command line reports after a solve
type RunResult struct {
	Converged    bool
	Iterations   int
	ResidualNorm float64
	MaxError     float64 // against the manufactured solution
	JumpNorm     float64 // interface solution mismatch after recovery
}

// Run assembles, solves and verifies the model problem
func Run(K, N int, tol float64, maxIter int, scaling string, verbose bool) (RunResult, error) {
	p, err := New(K, N)
	if err != nil {
		return RunResult{}, err
	}
	M, err := p.BuildPreconditioner(scaling)
	if err != nil {
		return RunResult{}, err
	}
	A := p.DualOperator()
	b := p.DualRHS()
	x0 := utils.NewVector(b.Len())

	s := solver.NewBiCgStab(A, M)
	s.Tol = tol
	s.MaxIter = maxIter
	s.Verbose = verbose
	s.Init(b, x0)
	for !s.Step() {
		if verbose {
			fmt.Printf("iter %4d  rel res %.3e\n", s.Iterations(), s.ResidualNorm())
		}
	}

	locals := p.Recover(s.Solution())
	u := p.GlobalSolution(locals)
	exact := p.Exact()

	var maxErr float64
	for i := 0; i < u.Len(); i++ {
		if e := math.Abs(u.AtVec(i) - exact.AtVec(i)); e > maxErr {
			maxErr = e
		}
	}
	var jumpNorm float64
	for k := 0; k < p.K-1; k++ {
		right := locals[k].AtVec(locals[k].Len() - 1)
		left := locals[k+1].AtVec(0)
		jumpNorm += (right - left) * (right - left)
	}
	jumpNorm = math.Sqrt(jumpNorm)

	res := RunResult{
		Converged:    s.State() == solver.Converged,
		Iterations:   s.Iterations(),
		ResidualNorm: s.ResidualNorm(),
		MaxError:     maxErr,
		JumpNorm:     jumpNorm,
	}
	if !res.Converged {
		return res, &solver.ConvergenceError{
			State:        s.State(),
			Iterations:   s.Iterations(),
			ResidualNorm: s.ResidualNorm(),
		}
	}
	return res, nil
}
