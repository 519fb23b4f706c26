package events

import "github.com/google/uuid"

// Delta is the change needed to turn one association set into another.
type Delta struct {
	Added   []uuid.UUID
	Removed []uuid.UUID
}

func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Reconcile compares the current and desired ids. Added keeps the order of
// desired, Removed keeps the order of current, and duplicates are collapsed.
func Reconcile(current, desired []uuid.UUID) Delta {
	have := toSet(current)
	want := toSet(desired)

	var d Delta
	for _, id := range dedupe(desired) {
		if _, ok := have[id]; !ok {
			d.Added = append(d.Added, id)
		}
	}
	for _, id := range dedupe(current) {
		if _, ok := want[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	return d
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
