package utils

import "sort"

type Index []int

func NewIndex(N int) (I Index) {
	return make(Index, N)
}

func NewRange(rmin, rmax int) (r Index) {
	var (
		size = rmax - rmin + 1 // INCLUSIVE RANGE
	)
	r = make(Index, size)
	for i := range r {
		r[i] = i + rmin
	}
	return
}

func (I Index) Len() int { return len(I) }

func (I Index) Copy() (R Index) {
	R = make(Index, len(I))
	copy(R, I)
	return
}

func (I Index) Sort() Index {
	sort.Ints(I)
	return I
}

func (I Index) Contains(val int) bool {
	j := sort.SearchInts(I, val)
	return j < len(I) && I[j] == val
}

func (I Index) Max() (max int) {
	for _, val := range I {
		if val > max {
			max = val
		}
	}
	return
}
