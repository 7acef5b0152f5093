package solver

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/arungoooo112/gismo/utils"
)

// LinearOperator is the capability every composed operator exposes: a
// matrix-vector product plus dimension queries. Implementations are
// immutable after construction and safe for concurrent Apply.
type LinearOperator interface {
	Apply(x utils.Vector) utils.Vector
	Rows() int
	Cols() int
}

// MatOp wraps a dense matrix as an operator
type MatOp struct {
	m *mat.Dense
}

func NewMatOp(m *mat.Dense) *MatOp {
	return &MatOp{m}
}

func (op *MatOp) Rows() int { r, _ := op.m.Dims(); return r }
func (op *MatOp) Cols() int { _, c := op.m.Dims(); return c }

func (op *MatOp) Apply(x utils.Vector) utils.Vector {
	R := utils.NewVector(op.Rows())
	R.V.MulVec(op.m, x.V)
	return R
}

// SparseOp wraps a CSR matrix as an operator
type SparseOp struct {
	m utils.CSR
}

func NewSparseOp(m utils.CSR) *SparseOp {
	return &SparseOp{m}
}

func (op *SparseOp) Rows() int { r, _ := op.m.Dims(); return r }
func (op *SparseOp) Cols() int { _, c := op.m.Dims(); return c }

func (op *SparseOp) Apply(x utils.Vector) utils.Vector {
	return op.m.MulVec(x)
}

// IdentityOp is the do-nothing operator, the default "preconditioner"
type IdentityOp struct {
	n int
}

func NewIdentityOp(n int) *IdentityOp { return &IdentityOp{n} }

func (op *IdentityOp) Rows() int { return op.n }
func (op *IdentityOp) Cols() int { return op.n }

func (op *IdentityOp) Apply(x utils.Vector) utils.Vector {
	return x.Copy()
}

// DiagonalOp applies a diagonal matrix given by its entries
type DiagonalOp struct {
	d []float64
}

func NewDiagonalOp(d []float64) *DiagonalOp {
	return &DiagonalOp{d}
}

func (op *DiagonalOp) Rows() int { return len(op.d) }
func (op *DiagonalOp) Cols() int { return len(op.d) }

func (op *DiagonalOp) Apply(x utils.Vector) utils.Vector {
	if x.Len() != len(op.d) {
		err := fmt.Errorf("dimension mismatch in DiagonalOp: diagonal has %d entries, vector length %d\n",
			len(op.d), x.Len())
		panic(err)
	}
	R := x.Copy()
	data := R.DataP()
	for i, di := range op.d {
		data[i] *= di
	}
	return R
}

// ScaleOp multiplies another operator by a scalar
type ScaleOp struct {
	alpha float64
	op    LinearOperator
}

func NewScaleOp(alpha float64, op LinearOperator) *ScaleOp {
	return &ScaleOp{alpha, op}
}

func (op *ScaleOp) Rows() int { return op.op.Rows() }
func (op *ScaleOp) Cols() int { return op.op.Cols() }

func (op *ScaleOp) Apply(x utils.Vector) utils.Vector {
	return op.op.Apply(x).Scale(op.alpha)
}

// SumOp is the sum of conforming operators
type SumOp struct {
	ops []LinearOperator
}

func NewSumOp(ops ...LinearOperator) *SumOp {
	if len(ops) == 0 {
		panic("NewSumOp requires at least one operator")
	}
	for _, op := range ops[1:] {
		if op.Rows() != ops[0].Rows() || op.Cols() != ops[0].Cols() {
			err := fmt.Errorf("dimension mismatch in NewSumOp: %dx%d vs %dx%d\n",
				op.Rows(), op.Cols(), ops[0].Rows(), ops[0].Cols())
			panic(err)
		}
	}
	return &SumOp{ops}
}

func (op *SumOp) Rows() int { return op.ops[0].Rows() }
func (op *SumOp) Cols() int { return op.ops[0].Cols() }

func (op *SumOp) Apply(x utils.Vector) utils.Vector {
	R := op.ops[0].Apply(x)
	for _, o := range op.ops[1:] {
		R.Add(o.Apply(x))
	}
	return R
}

// ProductOp composes operators; Apply evaluates right to left, so
// NewProductOp(A, B, C).Apply(x) == A*(B*(C*x))
type ProductOp struct {
	ops []LinearOperator
}

func NewProductOp(ops ...LinearOperator) *ProductOp {
	if len(ops) == 0 {
		panic("NewProductOp requires at least one operator")
	}
	for i := 0; i < len(ops)-1; i++ {
		if ops[i].Cols() != ops[i+1].Rows() {
			err := fmt.Errorf("dimension mismatch in NewProductOp: operator %d has %d cols, operator %d has %d rows\n",
				i, ops[i].Cols(), i+1, ops[i+1].Rows())
			panic(err)
		}
	}
	return &ProductOp{ops}
}

func (op *ProductOp) Rows() int { return op.ops[0].Rows() }
func (op *ProductOp) Cols() int { return op.ops[len(op.ops)-1].Cols() }

func (op *ProductOp) Apply(x utils.Vector) utils.Vector {
	R := x
	for i := len(op.ops) - 1; i >= 0; i-- {
		R = op.ops[i].Apply(R)
	}
	return R
}

// CholeskySolveOp applies the inverse of a symmetric positive definite
// matrix through its precomputed Cholesky factorization. The
// factorization is read-only after construction, so concurrent applies
// are safe.
type CholeskySolveOp struct {
	chol *mat.Cholesky
}

func NewCholeskySolveOp(a *mat.SymDense) (*CholeskySolveOp, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, fmt.Errorf("cholesky factorization failed: matrix is not positive definite")
	}
	return &CholeskySolveOp{&chol}, nil
}

func (op *CholeskySolveOp) Rows() int { return op.chol.SymmetricDim() }
func (op *CholeskySolveOp) Cols() int { return op.chol.SymmetricDim() }

func (op *CholeskySolveOp) Apply(x utils.Vector) utils.Vector {
	R := utils.NewVector(x.Len())
	if err := op.chol.SolveVecTo(R.V, x.V); err != nil {
		panic(err)
	}
	return R
}
