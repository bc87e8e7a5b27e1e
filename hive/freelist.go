package hive

import "sort"

// Range is a half-open absolute byte range.
type Range struct {
	Start int
	End   int
}

// Len returns the size of the range in bytes.
func (r Range) Len() int { return r.End - r.Start }

// FreeList tracks the byte ranges of freed entries. Ranges are sorted and
// merged once building finishes.
type FreeList struct {
	ranges []Range
}

func (f *FreeList) add(start, end int) {
	if end <= start {
		return
	}
	f.ranges = append(f.ranges, Range{Start: start, End: end})
}

func (f *FreeList) finish() {
	if len(f.ranges) < 2 {
		return
	}
	sort.Slice(f.ranges, func(i, j int) bool { return f.ranges[i].Start < f.ranges[j].Start })
	merged := f.ranges[:1]
	for _, r := range f.ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			last.End = max(last.End, r.End)
			continue
		}
		merged = append(merged, r)
	}
	f.ranges = merged
}

// Contains reports whether off lies inside a free range.
func (f *FreeList) Contains(off int) bool {
	return f.Overlaps(off, off+1)
}

// Overlaps reports whether [start, end) intersects a free range.
func (f *FreeList) Overlaps(start, end int) bool {
	i := sort.Search(len(f.ranges), func(i int) bool { return f.ranges[i].End > start })
	return i < len(f.ranges) && f.ranges[i].Start < end
}

// Ranges returns the merged free ranges in ascending order.
func (f *FreeList) Ranges() []Range {
	out := make([]Range, len(f.ranges))
	copy(out, f.ranges)
	return out
}

// Bytes returns the total number of free bytes.
func (f *FreeList) Bytes() int {
	n := 0
	for _, r := range f.ranges {
		n += r.Len()
	}
	return n
}
