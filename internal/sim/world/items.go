package world

import "sort"

// ItemSources is the capability surface the aggregator walks. It abstracts
// the four ways an entity can hold items so the traversal never hardcodes
// entity internals.
type ItemSources interface {
	EquipmentItems(owner EntityID) []EntityID
	SlotItems(owner EntityID) []EntityID
	HeldItems(owner EntityID) []EntityID
	ContainerItems(owner EntityID) []EntityID
}

// EnumerateItems yields every item reachable from owner exactly once:
// direct equipment, item slots, hands and attached containers, then
// breadth-first through containers nested inside those items. The visited
// set is keyed by entity identity, so shared references and container
// cycles neither loop nor double-count.
func EnumerateItems(src ItemSources, owner EntityID) []EntityID {
	visited := map[EntityID]struct{}{}
	var queue []EntityID

	enqueue := func(id EntityID) {
		if id == 0 {
			return
		}
		if _, seen := visited[id]; seen {
			return
		}
		visited[id] = struct{}{}
		queue = append(queue, id)
	}

	for _, id := range src.EquipmentItems(owner) {
		enqueue(id)
	}
	for _, id := range src.SlotItems(owner) {
		enqueue(id)
	}
	for _, id := range src.HeldItems(owner) {
		enqueue(id)
	}
	for _, id := range src.ContainerItems(owner) {
		enqueue(id)
	}

	out := make([]EntityID, 0, len(queue))
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)

		for _, child := range src.ContainerItems(cur) {
			enqueue(child)
		}
	}
	return out
}

func (w *World) EquipmentItems(owner EntityID) []EntityID {
	e := w.entities[owner]
	if e == nil || len(e.Equipment) == 0 {
		return nil
	}
	out := make([]EntityID, 0, len(e.Equipment))
	for _, s := range e.Equipment {
		if s.Item != 0 {
			out = append(out, s.Item)
		}
	}
	return out
}

func (w *World) SlotItems(owner EntityID) []EntityID {
	e := w.entities[owner]
	if e == nil || len(e.Slots) == 0 {
		return nil
	}
	out := make([]EntityID, 0, len(e.Slots))
	for _, s := range e.Slots {
		if s.Item != 0 {
			out = append(out, s.Item)
		}
	}
	return out
}

func (w *World) HeldItems(owner EntityID) []EntityID {
	e := w.entities[owner]
	if e == nil || len(e.Hands) == 0 {
		return nil
	}
	out := make([]EntityID, 0, len(e.Hands))
	for _, h := range e.Hands {
		if h.Held != 0 {
			out = append(out, h.Held)
		}
	}
	return out
}

func (w *World) ContainerItems(owner EntityID) []EntityID {
	e := w.entities[owner]
	if e == nil || e.Containers == nil {
		return nil
	}
	names := make([]string, 0, len(e.Containers))
	for name := range e.Containers {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []EntityID
	for _, name := range names {
		out = append(out, e.Containers[name]...)
	}
	return out
}

func (w *World) enumerateItems(owner EntityID) []EntityID {
	return EnumerateItems(w, owner)
}
