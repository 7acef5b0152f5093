package ieti

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/arungoooo112/gismo/utils"
)

// randomSPD builds a random sparse symmetric positive definite matrix
// by diagonal dominance
func randomSPD(n int, rnd *rand.Rand) utils.CSR {
	d := utils.NewDOK(n, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rnd.Float64() < 0.4 {
				v := rnd.Float64() - 0.5
				d.Set(i, j, v)
				d.Set(j, i, v)
			}
		}
	}
	for i := 0; i < n; i++ {
		sum := 1.0
		for j := 0; j < n; j++ {
			if j != i {
				sum += absf(d.At(i, j))
			}
		}
		d.Set(i, i, sum)
	}
	return d.ToCSR()
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestSkeletonDofs(t *testing.T) {
	// column in the skeleton iff some multiplier row touches it
	{
		d := utils.NewDOK(3, 6)
		d.Set(0, 4, 1)
		d.Set(1, 1, -1)
		d.Set(2, 4, 1)
		dofs := SkeletonDofs(d.ToCSR())
		assert.Equal(t, utils.Index{1, 4}, dofs)
	}
	// no nonzeros, no skeleton
	{
		d := utils.NewDOK(2, 4)
		dofs := SkeletonDofs(d.ToCSR())
		assert.Equal(t, 0, dofs.Len())
	}
}

func TestRestrictJumpMatrix(t *testing.T) {
	d := utils.NewDOK(3, 6)
	d.Set(0, 1, 1)
	d.Set(0, 3, -1)
	d.Set(1, 4, 1)
	d.Set(2, 1, -1)
	jm := d.ToCSR()
	dofs := utils.Index{1, 4}
	r := RestrictJumpMatrix(jm, dofs)

	nr, nc := r.Dims()
	assert.Equal(t, 3, nr)
	assert.Equal(t, 2, nc)
	// kept columns remapped to their position in dofs
	assert.Equal(t, 1., r.At(0, 0))
	assert.Equal(t, 1., r.At(1, 1))
	assert.Equal(t, -1., r.At(2, 0))
	// column 3 was not in dofs, its entry vanished
	assert.Equal(t, 0., r.At(0, 1))

	// per-row nonzero count never increases
	inRow := make([]int, 3)
	jm.DoNonZero(func(i, j int, v float64) { inRow[i]++ })
	outRow := make([]int, 3)
	r.DoNonZero(func(i, j int, v float64) { outRow[i]++ })
	for i := range inRow {
		assert.LessOrEqual(t, outRow[i], inRow[i])
	}
}

func TestMatrixBlocks(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	// re-tiling the four blocks by original index reproduces the source
	for _, n := range []int{5, 12, 20} {
		a := randomSPD(n, rnd)
		dofs := utils.Index{}
		for i := 0; i < n; i += 3 {
			dofs = append(dofs, i)
		}
		blocks := MatrixBlocks(a, dofs)

		interior := utils.Index{}
		for i := 0; i < n; i++ {
			if !dofs.Contains(i) {
				interior = append(interior, i)
			}
		}
		retiled := mat.NewDense(n, n, nil)
		blocks.A00.DoNonZero(func(i, j int, v float64) { retiled.Set(dofs[i], dofs[j], v) })
		blocks.A01.DoNonZero(func(i, j int, v float64) { retiled.Set(dofs[i], interior[j], v) })
		blocks.A10.DoNonZero(func(i, j int, v float64) { retiled.Set(interior[i], dofs[j], v) })
		blocks.A11.DoNonZero(func(i, j int, v float64) { retiled.Set(interior[i], interior[j], v) })
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				assert.Equal(t, a.At(i, j), retiled.At(i, j))
			}
		}
	}
	// non-square input panics
	{
		d := utils.NewDOK(2, 3)
		d.Set(0, 0, 1)
		assert.Panics(t, func() { MatrixBlocks(d.ToCSR(), utils.Index{0}) })
	}
}

func TestSchurComplement(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	// operator apply matches the dense reference S = A00 - A01 A11⁻¹ A10,
	// on balanced splits and on splits with far fewer skeleton than
	// interior dofs
	cases := []struct {
		n    int
		dofs utils.Index
	}{
		{6, utils.Index{1, 3, 5}},
		{12, utils.Index{1, 3, 5, 7, 9, 11}},
		{10, utils.Index{0, 4, 7}},
		{20, utils.Index{0, 19}},
	}
	for _, tc := range cases {
		n, dofs := tc.n, tc.dofs
		a := randomSPD(n, rnd)
		op, err := SchurComplementOf(a, dofs)
		require.NoError(t, err)
		assert.Equal(t, dofs.Len(), op.Rows())
		assert.Equal(t, dofs.Len(), op.Cols())

		blocks := MatrixBlocks(a, dofs)
		n0 := dofs.Len()
		n1 := n - n0
		a11inv := mat.NewDense(n1, n1, nil)
		err = a11inv.Inverse(blocks.A11.ToDense())
		require.NoError(t, err)
		var tmp, ref mat.Dense
		tmp.Mul(a11inv, blocks.A10.ToDense())
		ref.Mul(blocks.A01.ToDense(), &tmp)
		ref.Scale(-1, &ref)
		ref.Add(&ref, blocks.A00.ToDense())

		for trial := 0; trial < 3; trial++ {
			x := utils.NewVector(n0)
			for i := 0; i < n0; i++ {
				x.SetVec(i, rnd.NormFloat64())
			}
			want := utils.NewVector(n0)
			want.V.MulVec(&ref, x.V)
			got := op.Apply(x)
			diff := got.Copy().Subtract(want)
			assert.InDelta(t, 0, diff.Norm()/want.Norm(), 1.e-10)
		}
	}
	// all dofs on the skeleton: the Schur complement is the matrix itself
	{
		a := randomSPD(5, rnd)
		op, err := SchurComplementOf(a, utils.NewRange(0, 4))
		require.NoError(t, err)
		x := utils.NewVector(5).Set(1)
		want := a.MulVec(x)
		diff := op.Apply(x).Subtract(want)
		assert.InDelta(t, 0, diff.Norm(), 1.e-14)
	}
	// indefinite eliminated block fails with FactorizationError
	{
		d := utils.NewDOK(3, 3)
		d.Set(0, 0, 1)
		d.Set(1, 1, -1) // eliminated block diag(-1, -1) is negative definite
		d.Set(2, 2, -1)
		_, err := SchurComplementOf(d.ToCSR(), utils.Index{0})
		var fe *FactorizationError
		assert.ErrorAs(t, err, &fe)
	}
}

func TestRestrictToSkeleton(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	n := 8
	a := randomSPD(n, rnd)
	d := utils.NewDOK(2, n)
	d.Set(0, 2, 1)
	d.Set(1, 5, -1)
	jm := d.ToCSR()
	dofs := SkeletonDofs(jm)

	rjm, schur, err := RestrictToSkeleton(jm, a, dofs)
	require.NoError(t, err)
	_, nc := rjm.Dims()
	assert.Equal(t, dofs.Len(), nc)
	assert.Equal(t, dofs.Len(), schur.Rows())
}
