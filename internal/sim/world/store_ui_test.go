package world

import (
	"testing"

	"tradepost.gg/internal/protocol"
)

func findListingState(ls []protocol.ListingState, id, category string) *protocol.ListingState {
	for i := range ls {
		if ls[i].ID == id && ls[i].Category == category {
			return &ls[i]
		}
	}
	return nil
}

func TestProjectUiState_CurrencyResolution(t *testing.T) {
	w := newTestWorld(t)
	store := addTestStore(t, w, StoreSpec{Pos: Vec3i{X: 1}})
	store.CurrencyWhitelist = []string{"credits", "gems"}
	store.Listings = []*Listing{
		buyListing("P", "MEDKIT", map[string]float64{"credits": 10, "gems": 2}, -1),
		buyListing("W", "MEDKIT", map[string]float64{"gems": 2}, -1),
		buyListing("X", "MEDKIT", map[string]float64{"zorkmids": 5, "ducats": 3}, -1),
	}

	a := joinActor(t, w, "trader")
	state := w.projectUiState(store, a.Entity)

	if got := findListingState(state.Listings, "P", "MISC"); got == nil || got.CurrencyID != "credits" || got.Price != 10 {
		t.Fatalf("preferred currency not used: %+v", got)
	}
	if got := findListingState(state.Listings, "W", "MISC"); got == nil || got.CurrencyID != "gems" {
		t.Fatalf("whitelist fallback not used: %+v", got)
	}
	// Off-whitelist costs fall back to the first cost key in sorted order.
	if got := findListingState(state.Listings, "X", "MISC"); got == nil || got.CurrencyID != "ducats" || got.Price != 3 {
		t.Fatalf("sorted-key fallback not used: %+v", got)
	}
}

func TestProjectUiState_BalanceAndRoundedPrices(t *testing.T) {
	w := newTestWorld(t)
	store := addTestStore(t, w, StoreSpec{Pos: Vec3i{X: 1}})
	store.CurrencyWhitelist = []string{"credits"}
	store.Listings = []*Listing{
		{ID: "F", ProductEntity: "MEDKIT", Cost: map[string]float64{"credits": 8.5}, Mode: ModeBuy, RemainingCount: -1, Categories: []string{"MEDICAL"}},
	}

	a := joinActor(t, w, "trader")
	handCoin(t, w, a.Entity, 33)

	state := w.projectUiState(store, a.Entity)
	if state.Balance != 33 {
		t.Fatalf("balance = %d, want 33", state.Balance)
	}
	got := findListingState(state.Listings, "F", "MEDICAL")
	if got == nil || got.Price != 9 {
		t.Fatalf("price not rounded up: %+v", got)
	}
}

func TestProjectUiState_ReadyToSellSynthesis(t *testing.T) {
	w := newTestWorld(t)
	store := addTestStore(t, w, StoreSpec{Pos: Vec3i{X: 1}})
	store.CurrencyWhitelist = []string{"credits"}
	store.Listings = []*Listing{
		sellListing("OWNED", "GEM", map[string]float64{"credits": 2}, 10),
		sellListing("EXHAUSTED", "GEM", map[string]float64{"credits": 2}, 0),
		sellListing("NOTOWNED", "MEDKIT", map[string]float64{"credits": 2}, 10),
		buyListing("BUYSIDE", "GEM", map[string]float64{"credits": 2}, 10),
	}

	a := joinActor(t, w, "trader")
	gem := mustSpawn(t, w, "GEM", Vec3i{})
	w.entities[gem].Stack.Count = 4
	w.tryPickupAnyHand(a.Entity, gem)

	state := w.projectUiState(store, a.Entity)

	if got := findListingState(state.Listings, "OWNED", readyToSellCategory); got == nil || got.Owned != 4 {
		t.Fatalf("owned sell listing must synthesize a ready-to-sell entry: %+v", got)
	}
	if findListingState(state.Listings, "EXHAUSTED", readyToSellCategory) != nil {
		t.Fatalf("exhausted listing must not synthesize")
	}
	if findListingState(state.Listings, "NOTOWNED", readyToSellCategory) != nil {
		t.Fatalf("unowned product must not synthesize")
	}
	if findListingState(state.Listings, "BUYSIDE", readyToSellCategory) != nil {
		t.Fatalf("buy listings must not synthesize")
	}
	// Originals stay listed under their own category.
	if findListingState(state.Listings, "OWNED", "MISC") == nil {
		t.Fatalf("original sell listing must remain")
	}
}

func TestUpdateUiState_CollapsesWithinTick(t *testing.T) {
	w := newTestWorld(t)
	store := addTestStore(t, w, StoreSpec{Pos: Vec3i{X: 1}})
	store.CurrencyWhitelist = []string{"credits"}

	a := joinActor(t, w, "trader")
	if ok, _ := w.tryOpenSession(store, a.Entity, 0); !ok {
		t.Fatalf("open failed")
	}

	w.updateUiState(store, a.Entity)
	w.updateUiState(store, a.Entity)

	if got := len(eventsOfType(a, "STORE_UI_STATE")); got != 1 {
		t.Fatalf("snapshots per store per tick = %d, want 1", got)
	}
}

func TestRefreshOpenStores_OnLedgerMutation(t *testing.T) {
	w := newTestWorld(t)
	store := addTestStore(t, w, StoreSpec{Pos: Vec3i{X: 1}})
	store.CurrencyWhitelist = []string{"credits"}

	a := joinActor(t, w, "trader")
	if ok, _ := w.tryOpenSession(store, a.Entity, 0); !ok {
		t.Fatalf("open failed")
	}

	w.GiveCurrency(a.Entity, "credits", 77)

	evs := eventsOfType(a, "STORE_UI_STATE")
	if len(evs) != 1 {
		t.Fatalf("snapshots = %d, want 1 (collapsed)", len(evs))
	}
	state, ok := evs[0]["state"].(protocol.StoreUiState)
	if !ok {
		t.Fatalf("missing state payload")
	}
	if state.Balance != 77 {
		t.Fatalf("snapshot balance = %d, want 77", state.Balance)
	}
}
