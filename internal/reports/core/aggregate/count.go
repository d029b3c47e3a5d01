package aggregate

// Count is the number of values emitted for a group.
type Count int64

func (c Count) Merge(o Count) Count { return c + o }

// CountAlgebra counts emitted values regardless of what they are.
func CountAlgebra[V any]() Algebra[V, Count] {
	return Algebra[V, Count]{
		Reduce: func(values []V) Count {
			return Count(len(values))
		},
		Rereduce: rereduceWith(func() Count { return 0 }, Count.Merge),
	}
}
