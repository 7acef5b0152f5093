package ieti

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/arungoooo112/gismo/solver"
	"github.com/arungoooo112/gismo/utils"
)

// ScaledDirichletPrec builds the scaled Dirichlet preconditioner for an
// IETI saddle-point problem,
//
//	sum_k  B_k D_k⁻¹ S_k D_k⁻¹ B_kᵀ
//
// where B_k are the jump matrices restricted to the skeleton, S_k the
// local Schur complements and D_k the scaling operators. Subdomains are
// registered during setup; once Preconditioner() has been called the
// returned operator is immutable and reusable across arbitrarily many
// solves and right-hand sides.
type ScaledDirichletPrec struct {
	jumpMatrices []utils.CSR
	schurOps     []solver.LinearOperator
	scalings     []*solver.DiagonalOp // diag(1/weight), nil until a scaling setup ran
}

// Reserve preallocates capacity for n subdomains
func (p *ScaledDirichletPrec) Reserve(n int) {
	if cap(p.jumpMatrices) < n {
		jm := make([]utils.CSR, len(p.jumpMatrices), n)
		copy(jm, p.jumpMatrices)
		p.jumpMatrices = jm
		so := make([]solver.LinearOperator, len(p.schurOps), n)
		copy(so, p.schurOps)
		p.schurOps = so
		sc := make([]*solver.DiagonalOp, len(p.scalings), n)
		copy(sc, p.scalings)
		p.scalings = sc
	}
}

// AddSubdomain registers one subdomain from its skeleton-restricted
// jump matrix and local Schur complement operator. A subdomain might
// be a patch-local problem or the assembled primal problem.
func (p *ScaledDirichletPrec) AddSubdomain(jumpMatrix utils.CSR, schurOp solver.LinearOperator) error {
	nr, nc := jumpMatrix.Dims()
	if schurOp.Rows() != schurOp.Cols() {
		return &ConfigurationError{Msg: fmt.Sprintf(
			"subdomain %d: Schur operator must be square, got %dx%d",
			len(p.jumpMatrices), schurOp.Rows(), schurOp.Cols())}
	}
	if nc != schurOp.Cols() {
		return &ConfigurationError{Msg: fmt.Sprintf(
			"subdomain %d: jump matrix has %d columns but the Schur operator dimension is %d",
			len(p.jumpMatrices), nc, schurOp.Cols())}
	}
	if len(p.jumpMatrices) > 0 {
		m, _ := p.jumpMatrices[0].Dims()
		if nr != m {
			return &ConfigurationError{Msg: fmt.Sprintf(
				"subdomain %d: jump matrix has %d rows but the multiplier space has dimension %d",
				len(p.jumpMatrices), nr, m)}
		}
	}
	p.jumpMatrices = append(p.jumpMatrices, jumpMatrix)
	p.schurOps = append(p.schurOps, schurOp)
	p.scalings = append(p.scalings, nil)
	return nil
}

// AddSubdomainMatrix is the convenience path: it derives the skeleton
// dofs from the jump matrix, restricts the jump matrix and takes the
// Schur complement of the raw local stiffness matrix
func (p *ScaledDirichletPrec) AddSubdomainMatrix(jumpMatrix, localMatrix utils.CSR) error {
	dofs := SkeletonDofs(jumpMatrix)
	jm, schur, err := RestrictToSkeleton(jumpMatrix, localMatrix, dofs)
	if err != nil {
		var fe *FactorizationError
		if errors.As(err, &fe) {
			fe.Subdomain = len(p.jumpMatrices)
		}
		return err
	}
	return p.AddSubdomain(jm, schur)
}

func (p *ScaledDirichletPrec) NSubdomains() int { return len(p.jumpMatrices) }

// JumpMatrix returns subdomain k's skeleton-restricted jump matrix
func (p *ScaledDirichletPrec) JumpMatrix(k int) utils.CSR { return p.jumpMatrices[k] }

// SchurOp returns subdomain k's local Schur complement operator
func (p *ScaledDirichletPrec) SchurOp(k int) solver.LinearOperator { return p.schurOps[k] }

// NLagrangeMultipliers returns the dimension of the global multiplier
// space, fixed by the first registered subdomain
func (p *ScaledDirichletPrec) NLagrangeMultipliers() (int, error) {
	if len(p.jumpMatrices) == 0 {
		return 0, &EmptyDomainError{Op: "NLagrangeMultipliers"}
	}
	m, _ := p.jumpMatrices[0].Dims()
	return m, nil
}

// Preconditioner assembles the additive operator over the global
// multiplier space. Every subdomain must carry a scaling operator;
// call SetupMultiplicityScaling or SetupDeluxeScaling first.
func (p *ScaledDirichletPrec) Preconditioner() (solver.LinearOperator, error) {
	if len(p.jumpMatrices) == 0 {
		return nil, &EmptyDomainError{Op: "Preconditioner"}
	}
	for k, sc := range p.scalings {
		if sc == nil {
			return nil, &ConfigurationError{Msg: fmt.Sprintf(
				"subdomain %d has no scaling operator; call SetupMultiplicityScaling or SetupDeluxeScaling before Preconditioner",
				k)}
		}
	}
	m, _ := p.jumpMatrices[0].Dims()
	locals := make([]solver.LinearOperator, len(p.schurOps))
	for k := range p.schurOps {
		locals[k] = solver.NewProductOp(p.scalings[k], p.schurOps[k], p.scalings[k])
	}
	return &additiveOp{
		jump:   append([]utils.CSR(nil), p.jumpMatrices...),
		locals: locals,
		m:      m,
	}, nil
}

// additiveOp is the assembled preconditioner: each subdomain term
// (transpose-jump, scale, Schur apply, scale, jump) is independent of
// the others, so the terms are evaluated by concurrent workers with a
// single synchronization point at the final sum.
type additiveOp struct {
	jump   []utils.CSR
	locals []solver.LinearOperator
	m      int
}

func (a *additiveOp) Rows() int { return a.m }
func (a *additiveOp) Cols() int { return a.m }

func (a *additiveOp) Apply(r utils.Vector) utils.Vector {
	nw := runtime.NumCPU()
	if nw > len(a.jump) {
		nw = len(a.jump)
	}
	if nw <= 1 {
		return a.applySerial(r)
	}
	partials := make([]utils.Vector, nw)
	work := make(chan int, len(a.jump))
	for k := range a.jump {
		work <- k
	}
	close(work)
	var wg sync.WaitGroup
	wg.Add(nw)
	for w := 0; w < nw; w++ {
		go func(w int) {
			defer wg.Done()
			acc := utils.NewVector(a.m)
			for k := range work {
				acc.Add(a.term(k, r))
			}
			partials[w] = acc
		}(w)
	}
	wg.Wait()
	R := partials[0]
	for _, part := range partials[1:] {
		R.Add(part)
	}
	return R
}

func (a *additiveOp) applySerial(r utils.Vector) utils.Vector {
	R := utils.NewVector(a.m)
	for k := range a.jump {
		R.Add(a.term(k, r))
	}
	return R
}

func (a *additiveOp) term(k int, r utils.Vector) utils.Vector {
	local := a.jump[k].MulVecT(r)
	return a.jump[k].MulVec(a.locals[k].Apply(local))
}
