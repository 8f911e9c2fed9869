package scale

// Range is the elevation extent of one or more DEM files. The zero value
// is the empty range and the identity of Merge.
type Range struct {
	Min   float64
	Max   float64
	Files int // Number of files folded into the range
}

// Of returns the range of a single file.
func Of(min, max float64) Range {
	return Range{Min: min, Max: max, Files: 1}
}

// Merge combines two ranges. It is associative and commutative, so
// per-file results can be folded in any order.
func (r Range) Merge(o Range) Range {
	switch {
	case o.Files == 0:
		return r
	case r.Files == 0:
		return o
	}
	out := Range{Min: r.Min, Max: r.Max, Files: r.Files + o.Files}
	if o.Min < out.Min {
		out.Min = o.Min
	}
	if o.Max > out.Max {
		out.Max = o.Max
	}
	return out
}

// Fold merges all ranges, starting from the empty range.
func Fold(ranges ...Range) Range {
	var acc Range
	for _, r := range ranges {
		acc = acc.Merge(r)
	}
	return acc
}

// Policy returns the computed policy spanning the whole range.
func (r Range) Policy() Computed {
	return Computed{MinElevation: r.Min, Range: r.Max - r.Min}
}
