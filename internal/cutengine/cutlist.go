package cutengine

import "fmt"

// Cut is a half-open interval [Start, End) of source time, in centiseconds,
// designating content to KEEP.
type Cut struct {
	Start int64
	End   int64
}

// CutList is an ordered sequence of non-overlapping half-open intervals in
// the centisecond reference base. A CutList with zero cuts is valid and
// yields an empty output.
type CutList struct {
	Cuts []Cut
}

// Validate checks the ordering invariant (0 <= cuts[i].start < cuts[i].end
// <= cuts[i+1].start) and merges adjacent cuts whose end meets the next
// cut's start into one, since the source treats touching cuts as a single
// cut rather than a zero-width gap (see DESIGN.md).
func (cl *CutList) Validate() error {
	for i, c := range cl.Cuts {
		if c.Start < 0 {
			return fmt.Errorf("cut %d: start %d must be >= 0", i, c.Start)
		}
		if c.Start >= c.End {
			return fmt.Errorf("cut %d: start %d must be < end %d", i, c.Start, c.End)
		}
		if i > 0 && c.Start < cl.Cuts[i-1].End {
			return fmt.Errorf("cut %d: start %d overlaps previous cut ending %d", i, c.Start, cl.Cuts[i-1].End)
		}
	}

	merged := make([]Cut, 0, len(cl.Cuts))
	for _, c := range cl.Cuts {
		if n := len(merged); n > 0 && merged[n-1].End == c.Start {
			merged[n-1].End = c.End
			continue
		}
		merged = append(merged, c)
	}
	cl.Cuts = merged
	return nil
}

// localCut is a Cut rescaled into a stream's native time base plus that
// stream's start_time offset, computed once per Cutter at startup.
type localCut struct {
	Start int64
	End   int64
}

// localize rescales every cut in cl from the centisecond reference base into
// base, adding offset (the stream's start_time, or 0 if unset).
func localize(cl CutList, base Rational, offset int64) []localCut {
	out := make([]localCut, len(cl.Cuts))
	for i, c := range cl.Cuts {
		out[i] = localCut{
			Start: CutListBase.Rescale(c.Start, base) + offset,
			End:   CutListBase.Rescale(c.End, base) + offset,
		}
	}
	return out
}
