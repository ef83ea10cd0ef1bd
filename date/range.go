package date

import "fmt"

// Range represents a range of dates.
type Range struct{ From, To Date }

// NewRange creates a new date range. If 'from' is after 'to', they are swapped.
func NewRange(from, to Date) Range {
	if from.After(to) {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// Lookback returns the range ending on 'to' and starting at the date described by 'rel'
// relative to 'to', e.g. "-6m" for the six months preceding 'to'. Absolute dates are accepted too.
func Lookback(to Date, rel string) (Range, error) {
	from, err := ParseRelative(rel, to)
	if err != nil {
		return Range{}, fmt.Errorf("invalid lookback %q: %w", rel, err)
	}
	return NewRange(from, to), nil
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }
