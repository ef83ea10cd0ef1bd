package date

import (
	"iter"
	"slices"
	"sort"
)

// History stores a chronological series of values, each associated with a specific date.
// It ensures that dates are unique and the series is always sorted.
type History[T float32 | float64 | string] struct {
	days   []Date
	values []T
}

// Latest returns the latest date and value in the history.
// If the history is empty, it returns zero value.
func (h *History[T]) Latest() (day Date, value T) {
	last := len(h.days) - 1
	if last < 0 {
		return Date{}, *new(T) // return zero value of T
	}
	return h.days[last], h.values[last]
}

// First returns the earliest date and value in the history.
func (h *History[T]) First() (day Date, value T) {
	if len(h.days) == 0 {
		return Date{}, *new(T)
	}
	return h.days[0], h.values[0]
}

// Len returns the number of items in the history.
func (h *History[T]) Len() int { return len(h.days) }

// chronological is a private implementation to make this history chronologically sorted.
type chronological[T float32 | float64 | string] struct{ *History[T] }

func (s chronological[T]) Less(i, j int) bool { return s.days[i].Before(s.days[j]) }

func (s chronological[T]) Swap(i, j int) {
	s.days[i], s.days[j] = s.days[j], s.days[i]
	s.values[i], s.values[j] = s.values[j], s.values[i]
}

// sort sorts the history in chronological order.
func (h *History[T]) sort() { sort.Sort(chronological[T]{h}) }

// Append adds a point to the history.
//
// Existing value at that date are overwritten.
func (h *History[T]) Append(on Date, q T) *History[T] {
	if i := h.index(on); i >= 0 {
		// Found a point at that exact same instant.
		// We choose to replace, because it will give higher priority to the last data
		h.values[i] = q
		return h
	}
	last := len(h.days) - 1
	h.days, h.values = append(h.days, on), append(h.values, q)
	// price files are mostly read in chronological order, only sort when needed.
	if last >= 0 && on.Before(h.days[last]) {
		h.sort()
	}
	return h
}

// index returns the position of 'day' or -1.
func (h *History[T]) index(day Date) int {
	i, found := slices.BinarySearchFunc(h.days, day, Date.Compare)
	if !found {
		return -1
	}
	return i
}

// Values returns an iterator over all date/value pairs in the history, in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}

// Get returns the value at 'day' and true or zero value and false.
func (h *History[T]) Get(day Date) (T, bool) {
	var value T
	if i := h.index(day); i >= 0 {
		return h.values[i], true
	}
	return value, false
}

// Within returns a new history restricted to the days inside r.
func (h *History[T]) Within(r Range) *History[T] {
	from, _ := slices.BinarySearchFunc(h.days, r.From, Date.Compare)
	to, found := slices.BinarySearchFunc(h.days, r.To, Date.Compare)
	if found {
		to++
	}
	if from > to {
		from = to
	}
	return &History[T]{
		days:   slices.Clone(h.days[from:to]),
		values: slices.Clone(h.values[from:to]),
	}
}

// Join performs an inner join of the histories on their days: only the days present in every
// history are kept. It returns those days in chronological order, and one column of values
// per history, in the order the histories were given.
func Join[T float32 | float64 | string](histories ...*History[T]) (days []Date, columns [][]T) {
	columns = make([][]T, len(histories))
	if len(histories) == 0 {
		return nil, columns
	}
	indexes := make([]int, len(histories))
	for _, on := range histories[0].days {
		all := true
		for i, h := range histories {
			// advance every cursor up to 'on'
			for indexes[i] < len(h.days) && h.days[indexes[i]].Before(on) {
				indexes[i]++
			}
			if indexes[i] >= len(h.days) {
				return days, columns
			}
			if h.days[indexes[i]] != on {
				all = false
			}
		}
		if !all {
			continue
		}
		days = append(days, on)
		for i, h := range histories {
			columns[i] = append(columns[i], h.values[indexes[i]])
		}
	}
	return days, columns
}
