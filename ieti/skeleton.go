package ieti

import (
	"github.com/arungoooo112/gismo/solver"
	"github.com/arungoooo112/gismo/utils"
)

// SkeletonDofs extracts the skeleton degrees of freedom from a jump
// matrix: a column belongs to the skeleton iff at least one Lagrange
// multiplier row has a nonzero entry there. The result is sorted.
// Cost is O(nnz).
func SkeletonDofs(jumpMatrix utils.CSR) (dofs utils.Index) {
	_, nc := jumpMatrix.Dims()
	seen := make([]bool, nc)
	jumpMatrix.DoNonZero(func(i, j int, v float64) {
		seen[j] = true
	})
	for j, hit := range seen {
		if hit {
			dofs = append(dofs, j)
		}
	}
	return
}

// RestrictJumpMatrix keeps only the columns listed in dofs, remapped to
// their position within dofs. Rows and values are unchanged; columns
// not in dofs are dropped entirely, so the per-row nonzero count never
// increases.
func RestrictJumpMatrix(jumpMatrix utils.CSR, dofs utils.Index) utils.CSR {
	nr, nc := jumpMatrix.Dims()
	// transient reverse lookup: dofs[i] -> i+1, zero means dropped
	reverse := make([]int, nc)
	for i, d := range dofs {
		reverse[d] = i + 1
	}
	out := utils.NewDOK(nr, len(dofs))
	jumpMatrix.DoNonZero(func(i, j int, v float64) {
		if reverse[j] > 0 {
			out.Set(i, reverse[j]-1, v)
		}
	})
	return out.ToCSR()
}

// Blocks is the partition of a local stiffness matrix with respect to a
// dof subset: block 0 is the subset (the skeleton), block 1 the rest.
// Re-tiling the four blocks by original index reproduces the source
// matrix exactly.
type Blocks struct {
	A00, A01, A10, A11 utils.CSR
}

// MatrixBlocks classifies every nonzero of localMatrix by whether its
// row and column indices lie in dofs. Skeleton dofs get a positive
// 1-based rank, the remaining dofs a distinct negative rank; one pass
// over the nonzeros then sorts each entry into its block by the signs
// of its row and column ranks. No hashed or searched lookup, linear in
// the nonzero count.
func MatrixBlocks(localMatrix utils.CSR, dofs utils.Index) Blocks {
	n, nc := localMatrix.Dims()
	if n != nc {
		panic("MatrixBlocks requires a square matrix")
	}
	reverse := make([]int, n) // call-local scratch, keeps this re-entrant
	for i, d := range dofs {
		reverse[d] = i + 1
	}
	neg := 0
	for i := 0; i < n; i++ {
		if reverse[i] == 0 {
			neg--
			reverse[i] = neg
		}
	}

	n0 := len(dofs)
	n1 := n - n0
	a00 := utils.NewDOK(n0, n0)
	a01 := utils.NewDOK(n0, n1)
	a10 := utils.NewDOK(n1, n0)
	a11 := utils.NewDOK(n1, n1)
	localMatrix.DoNonZero(func(i, j int, v float64) {
		ri, rj := reverse[i], reverse[j]
		switch {
		case ri > 0 && rj > 0:
			a00.Set(ri-1, rj-1, v)
		case ri > 0 && rj < 0:
			a01.Set(ri-1, -rj-1, v)
		case ri < 0 && rj > 0:
			a10.Set(-ri-1, rj-1, v)
		default:
			a11.Set(-ri-1, -rj-1, v)
		}
	})
	return Blocks{
		A00: a00.ToCSR(),
		A01: a01.ToCSR(),
		A10: a10.ToCSR(),
		A11: a11.ToCSR(),
	}
}

// SchurOp computes A00*x - A01*(A11⁻¹*(A10*x)) over the skeleton dofs,
// using one triangular solve pair against the precomputed factorization
// of A11 per apply. Immutable after construction.
type SchurOp struct {
	a00, a01, a10 utils.CSR
	inner         *solver.CholeskySolveOp // nil when the eliminated block is empty
	n             int
}

func (s *SchurOp) Rows() int { return s.n }
func (s *SchurOp) Cols() int { return s.n }

func (s *SchurOp) Apply(x utils.Vector) utils.Vector {
	R := s.a00.MulVec(x)
	if s.inner == nil {
		return R
	}
	t := s.inner.Apply(s.a10.MulVec(x))
	return R.Subtract(s.a01.MulVec(t))
}

// SchurComplement builds the Schur complement operator from a block
// partition. The eliminated block A11 must be symmetric positive
// definite so the sparse Cholesky factorization applies.
func SchurComplement(blocks Blocks) (*SchurOp, error) {
	n0, _ := blocks.A00.Dims()
	n1, _ := blocks.A11.Dims()
	op := &SchurOp{
		a00: blocks.A00,
		a01: blocks.A01,
		a10: blocks.A10,
		n:   n0,
	}
	if n1 == 0 { // nothing to eliminate, the Schur complement is A00 itself
		return op, nil
	}
	inner, err := solver.NewCholeskySolveOp(blocks.A11.ToSym())
	if err != nil {
		return nil, &FactorizationError{Subdomain: -1, Err: err}
	}
	op.inner = inner
	return op, nil
}

// SchurComplementOf partitions localMatrix with respect to dofs and
// builds the Schur complement operator in one call
func SchurComplementOf(localMatrix utils.CSR, dofs utils.Index) (*SchurOp, error) {
	return SchurComplement(MatrixBlocks(localMatrix, dofs))
}

// RestrictToSkeleton bundles one subdomain's contribution: the jump
// matrix restricted to the skeleton dofs and the Schur complement of
// the local stiffness matrix with respect to them
func RestrictToSkeleton(jumpMatrix, localMatrix utils.CSR, dofs utils.Index) (utils.CSR, *SchurOp, error) {
	schur, err := SchurComplementOf(localMatrix, dofs)
	if err != nil {
		return utils.CSR{}, nil, err
	}
	return RestrictJumpMatrix(jumpMatrix, dofs), schur, nil
}
