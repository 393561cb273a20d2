package graph

// visitedSet is an immutable set of node ids and coordinate strings already
// on the current resolution path. with returns a new set; the receiver is
// never modified, so sibling branches never observe each other's visits.
type visitedSet map[string]struct{}

func newVisitedSet(keys ...string) visitedSet {
	return visitedSet(nil).with(keys...)
}

func (v visitedSet) has(key string) bool {
	_, ok := v[key]
	return ok
}

func (v visitedSet) with(keys ...string) visitedSet {
	out := make(visitedSet, len(v)+len(keys))
	for k := range v {
		out[k] = struct{}{}
	}
	for _, k := range keys {
		if k != "" {
			out[k] = struct{}{}
		}
	}
	return out
}
