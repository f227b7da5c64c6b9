package world

import "testing"

func handCoin(t *testing.T, w *World, user EntityID, count int) EntityID {
	t.Helper()
	id := mustSpawn(t, w, "COIN", Vec3i{})
	w.entities[id].Stack.Count = count
	if !w.tryPickupAnyHand(user, id) {
		t.Fatalf("pickup failed")
	}
	return id
}

func TestGetBalance_SumsNestedStacks(t *testing.T) {
	w := newTestWorld(t)
	a := joinActor(t, w, "trader")

	handCoin(t, w, a.Entity, 30)

	pouch := mustSpawn(t, w, "POUCH", Vec3i{})
	w.entities[pouch].Containers = map[string][]EntityID{"main": nil}
	if !w.tryPickupAnyHand(a.Entity, pouch) {
		t.Fatalf("pickup failed")
	}
	nested := mustSpawn(t, w, "COIN", Vec3i{})
	w.entities[nested].Stack.Count = 12
	if !w.putInContainer(pouch, "main", nested) {
		t.Fatalf("put failed")
	}

	if got := w.GetBalance(a.Entity, "credits"); got != 42 {
		t.Fatalf("balance = %d, want 42", got)
	}
	if got := w.GetBalance(a.Entity, "gems"); got != 0 {
		t.Fatalf("gems balance = %d, want 0", got)
	}
}

func TestTryTakeCurrency_InsufficientTakesNothing(t *testing.T) {
	w := newTestWorld(t)
	a := joinActor(t, w, "trader")
	id := handCoin(t, w, a.Entity, 10)

	if w.TryTakeCurrency(a.Entity, "credits", 11) {
		t.Fatalf("take should fail")
	}
	if w.entities[id].Stack.Count != 10 {
		t.Fatalf("stack mutated on failed take: %d", w.entities[id].Stack.Count)
	}
}

func TestTryTakeCurrency_SmallestStacksFirst(t *testing.T) {
	w := newTestWorld(t)
	a := joinActor(t, w, "trader")
	small := handCoin(t, w, a.Entity, 5)
	big := handCoin(t, w, a.Entity, 50)

	if !w.TryTakeCurrency(a.Entity, "credits", 3) {
		t.Fatalf("take failed")
	}
	if w.entities[small].Stack.Count != 2 {
		t.Fatalf("small stack = %d, want 2", w.entities[small].Stack.Count)
	}
	if w.entities[big].Stack.Count != 50 {
		t.Fatalf("big stack touched: %d", w.entities[big].Stack.Count)
	}
}

func TestTryTakeCurrency_DrainedStackDeleted(t *testing.T) {
	w := newTestWorld(t)
	a := joinActor(t, w, "trader")
	small := handCoin(t, w, a.Entity, 5)
	big := handCoin(t, w, a.Entity, 50)

	if !w.TryTakeCurrency(a.Entity, "credits", 15) {
		t.Fatalf("take failed")
	}
	if w.entityExists(small) {
		t.Fatalf("drained stack should be deleted")
	}
	if w.entities[big].Stack.Count != 40 {
		t.Fatalf("big stack = %d, want 40", w.entities[big].Stack.Count)
	}
	if got := w.GetBalance(a.Entity, "credits"); got != 40 {
		t.Fatalf("balance = %d, want 40", got)
	}
}

func TestTryTakeCurrency_ZeroAmountSucceeds(t *testing.T) {
	w := newTestWorld(t)
	a := joinActor(t, w, "trader")
	if !w.TryTakeCurrency(a.Entity, "credits", 0) {
		t.Fatalf("zero take should succeed")
	}
}

func TestGiveCurrency_TopsUpThenChunks(t *testing.T) {
	w := newTestWorld(t)
	a := joinActor(t, w, "trader")
	existing := handCoin(t, w, a.Entity, 90)

	// 10 tops up the held stack to its max of 100; the remaining 110
	// spawns as a full 100 stack plus a 10 stack.
	w.GiveCurrency(a.Entity, "credits", 120)

	if w.entities[existing].Stack.Count != 100 {
		t.Fatalf("existing stack = %d, want 100", w.entities[existing].Stack.Count)
	}
	// One spawned stack lands in the free hand; the second has nowhere
	// to go and stays on the ground.
	if got := w.GetBalance(a.Entity, "credits"); got != 200 {
		t.Fatalf("carried balance = %d, want 200", got)
	}

	total := 0
	for _, e := range w.entities {
		if e.Stack != nil && e.Stack.Type == "credits" {
			if e.Stack.Count > 100 {
				t.Fatalf("stack over max: %d", e.Stack.Count)
			}
			total += e.Stack.Count
		}
	}
	if total != 220 {
		t.Fatalf("world credits = %d, want 220", total)
	}
}

func TestGiveCurrency_UnboundedSingleStack(t *testing.T) {
	w := newTestWorld(t)
	a := joinActor(t, w, "trader")

	w.GiveCurrency(a.Entity, "gems", 5000)
	if got := w.GetBalance(a.Entity, "gems"); got != 5000 {
		t.Fatalf("gems = %d, want 5000", got)
	}

	stacks := 0
	for _, e := range w.entities {
		if e.Stack != nil && e.Stack.Type == "gems" {
			stacks++
		}
	}
	if stacks != 1 {
		t.Fatalf("gem stacks = %d, want 1", stacks)
	}
}

func TestGiveCurrency_UnknownTypeNoop(t *testing.T) {
	w := newTestWorld(t)
	a := joinActor(t, w, "trader")
	w.GiveCurrency(a.Entity, "plutonium", 10)
	if len(w.enumerateItems(a.Entity)) != 0 {
		t.Fatalf("unknown stack type should grant nothing")
	}
}
