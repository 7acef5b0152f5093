package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// DOK is the assembly-stage sparse format: cheap random writes,
// convert to CSR once assembly is finished.
type DOK struct {
	M *sparse.DOK
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{sparse.NewDOK(nr, nc)}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }

func (m DOK) Set(i, j int, val float64) { m.M.Set(i, j, val) }

// Accumulate adds val to the entry at (i,j), the usual
// finite-element assembly operation
func (m DOK) Accumulate(i, j int, val float64) {
	m.M.Set(i, j, m.M.At(i, j)+val)
}

func (m DOK) DoNonZero(fn func(i, j int, v float64)) { m.M.DoNonZero(fn) }

func (m DOK) ToCSR() CSR {
	return CSR{m.M.ToCSR()}
}

// CSR is the application-stage sparse format: immutable after
// conversion, O(nnz) traversal and matrix-vector products
type CSR struct {
	M *sparse.CSR
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)    { return m.M.Dims() }
func (m CSR) At(i, j int) float64 { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix       { return m.M.T() }

func (m CSR) DoNonZero(fn func(i, j int, v float64)) { m.M.DoNonZero(fn) }

func (m CSR) Nonzeros() (nnz int) {
	m.M.DoNonZero(func(i, j int, v float64) { nnz++ })
	return
}

// MulVec computes R = M * x
func (m CSR) MulVec(x Vector) (R Vector) {
	nr, nc := m.Dims()
	if x.Len() != nc {
		err := fmt.Errorf("dimension mismatch in MulVec: matrix is %dx%d, vector length %d\n", nr, nc, x.Len())
		panic(err)
	}
	R = NewVector(nr)
	rd, xd := R.DataP(), x.DataP()
	m.M.DoNonZero(func(i, j int, v float64) {
		rd[i] += v * xd[j]
	})
	return
}

// MulVecT computes R = Mᵀ * x without forming the transpose
func (m CSR) MulVecT(x Vector) (R Vector) {
	nr, nc := m.Dims()
	if x.Len() != nr {
		err := fmt.Errorf("dimension mismatch in MulVecT: matrix is %dx%d, vector length %d\n", nr, nc, x.Len())
		panic(err)
	}
	R = NewVector(nc)
	rd, xd := R.DataP(), x.DataP()
	m.M.DoNonZero(func(i, j int, v float64) {
		rd[j] += v * xd[i]
	})
	return
}

func (m CSR) ToDense() (R *mat.Dense) {
	nr, nc := m.Dims()
	R = mat.NewDense(nr, nc, nil)
	m.M.DoNonZero(func(i, j int, v float64) {
		R.Set(i, j, v)
	})
	return
}

// ToSym copies a structurally symmetric CSR into a gonum SymDense,
// the format the Cholesky factorization consumes
func (m CSR) ToSym() (R *mat.SymDense) {
	nr, nc := m.Dims()
	if nr != nc {
		err := fmt.Errorf("cannot symmetrize a %dx%d matrix\n", nr, nc)
		panic(err)
	}
	R = mat.NewSymDense(nr, nil)
	m.M.DoNonZero(func(i, j int, v float64) {
		if j >= i {
			R.SetSym(i, j, v)
		}
	})
	return
}
