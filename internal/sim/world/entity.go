package world

// EntityID is a stable arena identity. 0 is "no entity".
type EntityID uint64

// Stack makes an entity quantity-bearing: N identical fungible units of Type.
type Stack struct {
	Type  string
	Count int
}

type Hand struct {
	Name string
	Held EntityID
}

type EquipSlot struct {
	Name string
	Item EntityID
}

type ItemSlot struct {
	Name string
	Item EntityID
}

// Entity is one world object. Capability fields are nil/empty when the
// entity lacks that capability; the store engine only ever asks through
// the World's capability queries, never by poking these fields directly.
type Entity struct {
	ID    EntityID
	Proto string
	Pos   Vec3i

	Stack *Stack

	Hands      []Hand
	Equipment  []EquipSlot
	Slots      []ItemSlot
	Containers map[string][]EntityID

	// Access tags this entity grants while carried (ID cards, keys).
	Grants []string

	// Native access reader on the entity: OR of required tag sets.
	// nil means the capability is absent (store fallback policy applies).
	AccessLists [][]string

	parent EntityID
}

func (w *World) spawnEntity(protoID string, pos Vec3i) (EntityID, bool) {
	def, ok := w.cats.Entities.Defs[protoID]
	if !ok {
		return 0, false
	}
	if w.spawnFail != nil && w.spawnFail(protoID) {
		return 0, false
	}
	id := EntityID(w.nextEntityNum.Add(1))
	e := &Entity{
		ID:    id,
		Proto: protoID,
		Pos:   pos,
	}
	if def.StackType != "" {
		e.Stack = &Stack{Type: def.StackType, Count: 1}
	}
	if len(def.Grants) > 0 {
		e.Grants = append([]string(nil), def.Grants...)
	}
	w.entities[id] = e
	return id, true
}

// deleteEntity removes an entity and everything nested inside it.
func (w *World) deleteEntity(id EntityID) {
	e := w.entities[id]
	if e == nil {
		return
	}
	w.detach(id)
	for _, h := range e.Hands {
		if h.Held != 0 {
			w.deleteEntity(h.Held)
		}
	}
	for _, s := range e.Equipment {
		if s.Item != 0 {
			w.deleteEntity(s.Item)
		}
	}
	for _, s := range e.Slots {
		if s.Item != 0 {
			w.deleteEntity(s.Item)
		}
	}
	for _, ids := range e.Containers {
		for _, child := range ids {
			w.deleteEntity(child)
		}
	}
	delete(w.entities, id)
	w.refreshOpenStores()
}

// detach removes the entity from whatever holds it; it stays in the world.
func (w *World) detach(id EntityID) {
	e := w.entities[id]
	if e == nil || e.parent == 0 {
		return
	}
	p := w.entities[e.parent]
	e.parent = 0
	if p == nil {
		return
	}
	for i := range p.Hands {
		if p.Hands[i].Held == id {
			p.Hands[i].Held = 0
		}
	}
	for i := range p.Equipment {
		if p.Equipment[i].Item == id {
			p.Equipment[i].Item = 0
		}
	}
	for i := range p.Slots {
		if p.Slots[i].Item == id {
			p.Slots[i].Item = 0
		}
	}
	for name, ids := range p.Containers {
		for i, child := range ids {
			if child == id {
				p.Containers[name] = append(ids[:i:i], ids[i+1:]...)
				break
			}
		}
	}
	w.refreshOpenStores()
}

func (w *World) hasHands(id EntityID) bool {
	e := w.entities[id]
	return e != nil && len(e.Hands) > 0
}

// tryPickupAnyHand places the item into the holder's first free hand.
func (w *World) tryPickupAnyHand(holder, item EntityID) bool {
	h := w.entities[holder]
	it := w.entities[item]
	if h == nil || it == nil || len(h.Hands) == 0 {
		return false
	}
	for i := range h.Hands {
		if h.Hands[i].Held != 0 {
			continue
		}
		w.detach(item)
		h.Hands[i].Held = item
		it.parent = holder
		it.Pos = h.Pos
		w.refreshOpenStores()
		return true
	}
	return false
}

// putInContainer inserts the item into a named container of the holder.
func (w *World) putInContainer(holder EntityID, name string, item EntityID) bool {
	h := w.entities[holder]
	it := w.entities[item]
	if h == nil || it == nil || h.Containers == nil {
		return false
	}
	if _, ok := h.Containers[name]; !ok {
		return false
	}
	w.detach(item)
	h.Containers[name] = append(h.Containers[name], item)
	it.parent = holder
	it.Pos = h.Pos
	w.refreshOpenStores()
	return true
}

func (w *World) equipItem(holder EntityID, slot string, item EntityID) bool {
	h := w.entities[holder]
	it := w.entities[item]
	if h == nil || it == nil {
		return false
	}
	for i := range h.Equipment {
		if h.Equipment[i].Name != slot || h.Equipment[i].Item != 0 {
			continue
		}
		w.detach(item)
		h.Equipment[i].Item = item
		it.parent = holder
		it.Pos = h.Pos
		w.refreshOpenStores()
		return true
	}
	return false
}

func (w *World) putInSlot(holder EntityID, slot string, item EntityID) bool {
	h := w.entities[holder]
	it := w.entities[item]
	if h == nil || it == nil {
		return false
	}
	for i := range h.Slots {
		if h.Slots[i].Name != slot || h.Slots[i].Item != 0 {
			continue
		}
		w.detach(item)
		h.Slots[i].Item = item
		it.parent = holder
		it.Pos = h.Pos
		w.refreshOpenStores()
		return true
	}
	return false
}

// setStackCount rewrites a stack's count; a stack reduced to zero is deleted.
func (w *World) setStackCount(id EntityID, count int) {
	e := w.entities[id]
	if e == nil || e.Stack == nil {
		return
	}
	if count <= 0 {
		w.deleteEntity(id)
		return
	}
	e.Stack.Count = count
	w.refreshOpenStores()
}

func (w *World) positionOf(id EntityID) Vec3i {
	if e := w.entities[id]; e != nil {
		return e.Pos
	}
	return Vec3i{}
}

func (w *World) entityExists(id EntityID) bool {
	_, ok := w.entities[id]
	return ok
}
