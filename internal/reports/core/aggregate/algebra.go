// Package aggregate holds the partial aggregates the views reduce to and
// their merge operations.
//
// Every Merge here is associative and commutative and returns a fresh value
// without touching its operands, so partials may be combined pairwise in any
// grouping and order. Each shape also has a zero value that acts as the
// merge identity.
package aggregate

// Algebra is a reduce/rereduce pair: Reduce folds raw emitted values of one
// group into a partial, Rereduce folds partials of the same group.
type Algebra[V, P any] struct {
	Reduce   func(values []V) P
	Rereduce func(partials []P) P
}

// Fold combines parts left to right starting from zero.
func Fold[P any](zero P, parts []P, merge func(P, P) P) P {
	acc := zero
	for _, p := range parts {
		acc = merge(acc, p)
	}
	return acc
}

// TreeFold combines parts as a balanced tree of pairwise merges. For an
// associative merge it equals Fold.
func TreeFold[P any](zero P, parts []P, merge func(P, P) P) P {
	switch len(parts) {
	case 0:
		return zero
	case 1:
		return merge(zero, parts[0])
	}
	mid := len(parts) / 2
	return merge(TreeFold(zero, parts[:mid], merge), TreeFold(zero, parts[mid:], merge))
}

func rereduceWith[P any](zero func() P, merge func(P, P) P) func([]P) P {
	return func(parts []P) P {
		return Fold(zero(), parts, merge)
	}
}
