package cp

import (
	"fmt"
	"sort"
)

// Domain is the finite set of values an integer variable may take. It is
// either the contiguous range [Min, Max] or an explicit sorted value set.
type Domain struct {
	lo, hi int64
	values []int64
}

// NewDomain returns the contiguous range [lo, hi].
func NewDomain(lo, hi int64) Domain {
	return Domain{lo: lo, hi: hi}
}

// DomainFromValues returns a domain holding exactly the given values.
func DomainFromValues(vals ...int64) Domain {
	if len(vals) == 0 {
		return Domain{lo: 1, hi: 0}
	}
	vs := append([]int64(nil), vals...)
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
	uniq := vs[:1]
	for _, v := range vs[1:] {
		if v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	d := Domain{lo: uniq[0], hi: uniq[len(uniq)-1]}
	if int64(len(uniq)) != d.hi-d.lo+1 {
		d.values = uniq
	}
	return d
}

// Min is the smallest value of the domain.
func (d Domain) Min() int64 { return d.lo }

// Max is the largest value of the domain.
func (d Domain) Max() int64 { return d.hi }

// IsEmpty reports whether the domain holds no value.
func (d Domain) IsEmpty() bool { return d.lo > d.hi }

// IsSparse reports whether the domain has holes.
func (d Domain) IsSparse() bool { return d.values != nil }

// Size returns the number of values in the domain.
func (d Domain) Size() int64 {
	if d.IsEmpty() {
		return 0
	}
	if d.values != nil {
		return int64(len(d.values))
	}
	return d.hi - d.lo + 1
}

// Contains reports whether v belongs to the domain.
func (d Domain) Contains(v int64) bool {
	if v < d.lo || v > d.hi {
		return false
	}
	if d.values == nil {
		return true
	}
	i := sort.Search(len(d.values), func(i int) bool { return d.values[i] >= v })
	return i < len(d.values) && d.values[i] == v
}

// Ceil returns the smallest member of the domain that is >= v.
func (d Domain) Ceil(v int64) (int64, bool) {
	if v > d.hi || d.IsEmpty() {
		return 0, false
	}
	if v <= d.lo {
		return d.lo, true
	}
	if d.values == nil {
		return v, true
	}
	i := sort.Search(len(d.values), func(i int) bool { return d.values[i] >= v })
	return d.values[i], true
}

// Floor returns the largest member of the domain that is <= v.
func (d Domain) Floor(v int64) (int64, bool) {
	if v < d.lo || d.IsEmpty() {
		return 0, false
	}
	if v >= d.hi {
		return d.hi, true
	}
	if d.values == nil {
		return v, true
	}
	i := sort.Search(len(d.values), func(i int) bool { return d.values[i] > v })
	return d.values[i-1], true
}

func (d Domain) String() string {
	if d.IsEmpty() {
		return "{}"
	}
	if d.values != nil {
		return fmt.Sprint(d.values)
	}
	return fmt.Sprintf("[%d..%d]", d.lo, d.hi)
}
