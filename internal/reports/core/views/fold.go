package views

import (
	"slices"

	"kpi-report-service/internal/reports/core/ports"
	"kpi-report-service/internal/sessions/core/domain"
)

// accumulator is one shard's group-by-key fold of a view. It is not safe
// for concurrent use; each shard owns one.
type accumulator interface {
	add(s domain.EnrichedSession)
	// absorb merges other's partials into this accumulator. other must come
	// from the same view.
	absorb(other accumulator)
	rows(group bool) []ports.Row
}

// groupFold buffers emitted values per key and reduces a key's buffer into
// its running partial once batch values are pending.
type groupFold[V, P any] struct {
	view    *view[V, P]
	batch   int
	pending map[ports.Key][]V
	partial map[ports.Key]P
}

func newGroupFold[V, P any](v *view[V, P], batch int) *groupFold[V, P] {
	if batch < 1 {
		batch = 1
	}
	return &groupFold[V, P]{
		view:    v,
		batch:   batch,
		pending: map[ports.Key][]V{},
		partial: map[ports.Key]P{},
	}
}

func (g *groupFold[V, P]) add(s domain.EnrichedSession) {
	g.view.mapFn(s, func(date string, v V) {
		k := g.view.key(s, date)
		g.pending[k] = append(g.pending[k], v)
		if len(g.pending[k]) >= g.batch {
			g.flush(k)
		}
	})
}

func (g *groupFold[V, P]) flush(k ports.Key) {
	values := g.pending[k]
	delete(g.pending, k)
	if len(values) == 0 {
		return
	}
	g.put(k, g.view.alg.Reduce(values))
}

func (g *groupFold[V, P]) put(k ports.Key, p P) {
	if prev, ok := g.partial[k]; ok {
		p = g.view.alg.Rereduce([]P{prev, p})
	}
	g.partial[k] = p
}

func (g *groupFold[V, P]) flushAll() {
	for k := range g.pending {
		g.flush(k)
	}
}

func (g *groupFold[V, P]) absorb(other accumulator) {
	o := other.(*groupFold[V, P])
	o.flushAll()
	for k, p := range o.partial {
		g.put(k, p)
	}
}

func (g *groupFold[V, P]) sortedKeys() []ports.Key {
	keys := make([]ports.Key, 0, len(g.partial))
	for k := range g.partial {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b ports.Key) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return keys
}

func (g *groupFold[V, P]) rows(group bool) []ports.Row {
	g.flushAll()
	keys := g.sortedKeys()
	if len(keys) == 0 {
		return nil
	}

	if !group {
		parts := make([]P, len(keys))
		for i, k := range keys {
			parts[i] = g.partial[k]
		}
		return []ports.Row{{Value: g.view.alg.Rereduce(parts)}}
	}

	out := make([]ports.Row, len(keys))
	for i, k := range keys {
		out[i] = ports.Row{Key: k, Value: g.partial[k]}
	}
	return out
}
