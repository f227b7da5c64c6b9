package world

import "sort"

// GetBalance sums the counts of every stack of the given type the user
// carries, however deeply nested.
func (w *World) GetBalance(user EntityID, stackType string) int {
	total := 0
	for _, id := range w.enumerateItems(user) {
		e := w.entities[id]
		if e == nil || e.Stack == nil || e.Stack.Type != stackType {
			continue
		}
		total += e.Stack.Count
	}
	return total
}

// TryTakeCurrency removes amount units of a stack type from the user.
// Atomic: if the user holds less than amount in total, nothing is taken.
// Smallest stacks are consumed first to keep fragmentation down; stacks
// drained to zero are deleted.
func (w *World) TryTakeCurrency(user EntityID, stackType string, amount int) bool {
	if amount <= 0 {
		return true
	}

	type cand struct {
		id    EntityID
		count int
	}
	var cands []cand
	total := 0

	for _, id := range w.enumerateItems(user) {
		e := w.entities[id]
		if e == nil || e.Stack == nil || e.Stack.Type != stackType {
			continue
		}
		cnt := e.Stack.Count
		if cnt <= 0 {
			continue
		}
		cands = append(cands, cand{id: id, count: cnt})
		total += cnt
	}

	if total < amount {
		return false
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].count != cands[j].count {
			return cands[i].count < cands[j].count
		}
		return cands[i].id < cands[j].id
	})

	left := amount
	for _, c := range cands {
		if left <= 0 {
			break
		}
		take := c.count
		if take > left {
			take = left
		}
		w.setStackCount(c.id, c.count-take)
		left -= take
	}
	return left <= 0
}

// GiveCurrency adds amount units of a stack type to the user: existing
// under-capacity stacks are topped up first, then fresh stacks are spawned
// at the user's position (chunked at the type's max size) and picked up
// into a free hand when the user has hands. Never fails; stacks that can't
// be picked up are left on the ground.
func (w *World) GiveCurrency(user EntityID, stackType string, amount int) {
	if amount <= 0 {
		return
	}
	def, ok := w.cats.Stacks.Defs[stackType]
	if !ok {
		return
	}

	for _, id := range w.enumerateItems(user) {
		if amount <= 0 {
			break
		}
		e := w.entities[id]
		if e == nil || e.Stack == nil || e.Stack.Type != stackType {
			continue
		}
		if def.MaxCount > 0 {
			canAdd := def.MaxCount - e.Stack.Count
			if canAdd <= 0 {
				continue
			}
			add := canAdd
			if add > amount {
				add = amount
			}
			w.setStackCount(id, e.Stack.Count+add)
			amount -= add
		} else {
			w.setStackCount(id, e.Stack.Count+amount)
			amount = 0
			break
		}
	}

	if amount <= 0 {
		return
	}

	pos := w.positionOf(user)
	for amount > 0 {
		add := amount
		if def.MaxCount > 0 && add > def.MaxCount {
			add = def.MaxCount
		}
		id, ok := w.spawnEntity(def.Spawn, pos)
		if !ok {
			w.logf("GiveCurrency: spawn %s failed, dropping %d %s", def.Spawn, amount, stackType)
			return
		}
		if e := w.entities[id]; e != nil && e.Stack != nil {
			w.setStackCount(id, add)
		}
		if w.hasHands(user) {
			w.tryPickupAnyHand(user, id)
		}
		amount -= add
	}
}
