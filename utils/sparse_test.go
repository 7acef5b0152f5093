package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSparse(t *testing.T) {
	// Assembly and conversion
	{
		d := NewDOK(3, 3)
		d.Set(0, 0, 2)
		d.Accumulate(0, 0, 1) // 3
		d.Set(1, 2, -1)
		d.Set(2, 1, 4)
		m := d.ToCSR()
		assert.Equal(t, 3., m.At(0, 0))
		assert.Equal(t, -1., m.At(1, 2))
		assert.Equal(t, 4., m.At(2, 1))
		assert.Equal(t, 0., m.At(1, 1))
		assert.Equal(t, 3, m.Nonzeros())
	}
	// MulVec and MulVecT
	{
		d := NewDOK(2, 3)
		d.Set(0, 0, 1)
		d.Set(0, 2, 2)
		d.Set(1, 1, 3)
		m := d.ToCSR()
		x := NewVector(3, []float64{1, 2, 3})
		y := m.MulVec(x)
		assert.Equal(t, []float64{7, 6}, y.DataP())
		z := NewVector(2, []float64{1, 1})
		w := m.MulVecT(z)
		assert.Equal(t, []float64{1, 3, 2}, w.DataP())
	}
	// ToDense / ToSym round trip
	{
		d := NewDOK(2, 2)
		d.Set(0, 0, 4)
		d.Set(0, 1, 1)
		d.Set(1, 0, 1)
		d.Set(1, 1, 3)
		m := d.ToCSR()
		dense := m.ToDense()
		sym := m.ToSym()
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				assert.Equal(t, m.At(i, j), dense.At(i, j))
				assert.Equal(t, m.At(i, j), sym.At(i, j))
			}
		}
	}
	// Dimension mismatch panics
	{
		d := NewDOK(2, 3)
		d.Set(0, 0, 1)
		m := d.ToCSR()
		assert.Panics(t, func() { m.MulVec(NewVector(2)) })
		assert.Panics(t, func() { m.MulVecT(NewVector(3)) })
		assert.Panics(t, func() { m.ToSym() })
	}
}

func TestVector(t *testing.T) {
	// Chainable arithmetic
	{
		v := NewVector(3, []float64{1, 2, 3})
		w := NewVector(3, []float64{4, 5, 6})
		assert.Equal(t, 32., v.Dot(w))
		u := v.Copy().AddScaled(2, w)
		assert.Equal(t, []float64{9, 12, 15}, u.DataP())
		// Copy must not alias
		assert.Equal(t, []float64{1, 2, 3}, v.DataP())
		v.Subtract(w)
		assert.Equal(t, []float64{-3, -3, -3}, v.DataP())
		assert.InDelta(t, 5.196152422706632, v.Norm(), 1.e-14)
	}
	// Min / Max / Apply
	{
		v := NewVector(4, []float64{-2, 0, 5, 1})
		assert.Equal(t, -2., v.Min())
		assert.Equal(t, 5., v.Max())
		v.Apply(func(x float64) float64 { return x * x })
		assert.Equal(t, []float64{4, 0, 25, 1}, v.DataP())
	}
	// Allocation mismatch panics
	{
		assert.Panics(t, func() { NewVector(2, []float64{1, 2, 3}) })
	}
}

func TestIndex(t *testing.T) {
	{
		I := NewRange(3, 6)
		assert.Equal(t, Index{3, 4, 5, 6}, I)
		assert.Equal(t, 6, I.Max())
		assert.True(t, I.Contains(4))
		assert.False(t, I.Contains(7))
	}
	{
		I := Index{5, 1, 3}.Sort()
		assert.Equal(t, Index{1, 3, 5}, I)
		J := I.Copy()
		J[0] = 9
		assert.Equal(t, 1, I[0])
	}
}
