package linealign

// Stats counts records per kind.
type Stats struct {
	Unchanged int
	Removed   int
	Added     int
}

// Stats counts the records of r by kind.
func (r Result) Stats() Stats {
	var s Stats
	for _, rec := range r {
		switch rec.Kind {
		case Unchanged:
			s.Unchanged++
		case Removed:
			s.Removed++
		case Added:
			s.Added++
		}
	}
	return s
}

// HasChanges reports whether r has any Removed or Added record.
func (r Result) HasChanges() bool {
	for _, rec := range r {
		if rec.Kind != Unchanged {
			return true
		}
	}
	return false
}

// OldLines returns the contents of Unchanged and Removed records, in order. This is the original's lines.
func (r Result) OldLines() []string {
	var out []string
	for _, rec := range r {
		if rec.Kind != Added {
			out = append(out, rec.Content)
		}
	}
	return out
}

// NewLines returns the contents of Unchanged and Added records, in order. This is the proposed text's lines.
func (r Result) NewLines() []string {
	var out []string
	for _, rec := range r {
		if rec.Kind != Removed {
			out = append(out, rec.Content)
		}
	}
	return out
}

// ChangedRange returns the original line indexes [start, end) covered by the Removed block, and the end of the proposed line indexes [start, newEnd) covered
// by the Added block. Both blocks begin at the common prefix length. ok is false when r has no changes.
func (r Result) ChangedRange() (start, end, newEnd int, ok bool) {
	if !r.HasChanges() {
		return 0, 0, 0, false
	}
	for _, rec := range r {
		if rec.Kind != Unchanged {
			break
		}
		start++
	}
	s := r.Stats()
	return start, start + s.Removed, start + s.Added, true
}
