package ieti

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arungoooo112/gismo/utils"
)

func buildTwoSubdomainPrec(t *testing.T) *ScaledDirichletPrec {
	t.Helper()
	rnd := rand.New(rand.NewSource(11))
	var p ScaledDirichletPrec
	p.Reserve(2)
	// two 6-dof subdomains, 2 multipliers tying dofs (4,5) of the first
	// to dofs (0,1) of the second
	a1 := randomSPD(6, rnd)
	a2 := randomSPD(6, rnd)
	b1 := utils.NewDOK(2, 6)
	b1.Set(0, 4, 1)
	b1.Set(1, 5, 1)
	b2 := utils.NewDOK(2, 6)
	b2.Set(0, 0, -1)
	b2.Set(1, 1, -1)
	require.NoError(t, p.AddSubdomainMatrix(b1.ToCSR(), a1))
	require.NoError(t, p.AddSubdomainMatrix(b2.ToCSR(), a2))
	return &p
}

func TestPreconditionerAssembly(t *testing.T) {
	// missing scaling is a ConfigurationError naming the setup call
	{
		p := buildTwoSubdomainPrec(t)
		_, err := p.Preconditioner()
		var ce *ConfigurationError
		require.ErrorAs(t, err, &ce)
		assert.Contains(t, ce.Error(), "SetupMultiplicityScaling")
	}
	// empty builder: EmptyDomainError from assembly and the multiplier count
	{
		var p ScaledDirichletPrec
		var ee *EmptyDomainError
		_, err := p.Preconditioner()
		assert.ErrorAs(t, err, &ee)
		_, err = p.NLagrangeMultipliers()
		assert.ErrorAs(t, err, &ee)
	}
	// multiplier space is fixed by the first subdomain
	{
		p := buildTwoSubdomainPrec(t)
		m, err := p.NLagrangeMultipliers()
		require.NoError(t, err)
		assert.Equal(t, 2, m)
		assert.Equal(t, 2, p.NSubdomains())
		// a jump matrix with a different row count is rejected
		bad := utils.NewDOK(3, 1)
		bad.Set(0, 0, 1)
		err = p.AddSubdomain(bad.ToCSR(), newSchurLike(identityCSR(1)))
		var ce *ConfigurationError
		assert.ErrorAs(t, err, &ce)
	}
	// mismatched jump/Schur dimensions are rejected
	{
		var p ScaledDirichletPrec
		b := utils.NewDOK(1, 3)
		b.Set(0, 0, 1)
		err := p.AddSubdomain(b.ToCSR(), newSchurLike(identityCSR(2)))
		var ce *ConfigurationError
		assert.ErrorAs(t, err, &ce)
	}
}

func TestPreconditionerApply(t *testing.T) {
	p := buildTwoSubdomainPrec(t)
	require.NoError(t, p.SetupMultiplicityScaling())
	op, err := p.Preconditioner()
	require.NoError(t, err)
	assert.Equal(t, 2, op.Rows())
	assert.Equal(t, 2, op.Cols())

	rnd := rand.New(rand.NewSource(23))
	randVec := func(n int) utils.Vector {
		v := utils.NewVector(n)
		for i := 0; i < n; i++ {
			v.SetVec(i, rnd.NormFloat64())
		}
		return v
	}

	// apply is linear: op(a*x + b*y) == a*op(x) + b*op(y)
	{
		for trial := 0; trial < 5; trial++ {
			x, y := randVec(2), randVec(2)
			a, b := rnd.NormFloat64(), rnd.NormFloat64()
			combined := op.Apply(x.Copy().Scale(a).AddScaled(b, y))
			separate := op.Apply(x).Scale(a).AddScaled(b, op.Apply(y))
			diff := combined.Copy().Subtract(separate)
			assert.InDelta(t, 0, diff.Norm(), 1.e-12)
		}
	}
	// the additive structure matches a hand-rolled per-subdomain sum
	{
		x := randVec(2)
		want := utils.NewVector(2)
		for k := 0; k < p.NSubdomains(); k++ {
			local := p.JumpMatrix(k).MulVecT(x)
			local = p.scalings[k].Apply(local)
			local = p.SchurOp(k).Apply(local)
			local = p.scalings[k].Apply(local)
			want.Add(p.JumpMatrix(k).MulVec(local))
		}
		diff := op.Apply(x).Subtract(want)
		assert.InDelta(t, 0, diff.Norm(), 1.e-13)
	}
	// repeated applies agree to rounding; the operator is immutable, so
	// only the concurrent reduction order can differ between runs
	{
		x := randVec(2)
		first := op.Apply(x)
		for i := 0; i < 10; i++ {
			diff := op.Apply(x).Subtract(first)
			assert.InDelta(t, 0, diff.Norm(), 1.e-14)
		}
	}
	// symmetric positive definite on the multiplier space: x·op(x) > 0
	{
		for trial := 0; trial < 5; trial++ {
			x := randVec(2)
			assert.Greater(t, x.Dot(op.Apply(x)), 0.)
		}
	}
}
