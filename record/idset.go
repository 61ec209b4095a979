package record

import "sort"

// IDSet is a set of record identifiers.
type IDSet map[ID]struct{}

func NewIDSet(ids ...ID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s IDSet) Add(id ID) {
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

func (s IDSet) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Len() int {
	return len(s)
}

// Sorted returns the ids in a stable order, numeric ids first in
// numeric order.
func (s IDSet) Sorted() []ID {
	ids := make([]ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		an, bn := a.IsNumeric(), b.IsNumeric()
		switch {
		case an && bn:
			if len(a) != len(b) {
				return len(a) < len(b)
			}
			return a < b
		case an != bn:
			return an
		default:
			return a < b
		}
	})
	return ids
}
