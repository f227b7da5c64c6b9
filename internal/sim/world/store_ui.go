package world

import (
	"sort"

	"tradepost.gg/internal/protocol"
)

const (
	defaultCategory     = "MISC"
	readyToSellCategory = "READY_TO_SELL"
)

// projectUiState recomputes the client-visible snapshot from scratch:
// balance in the preferred currency plus the annotated listing list, with
// a synthesized "ready to sell" pseudo-entry for every Sell listing the
// user owns at least one of that still has stock. Nothing is cached.
func (w *World) projectUiState(store *Store, user EntityID) protocol.StoreUiState {
	preferred := ""
	if len(store.CurrencyWhitelist) > 0 {
		preferred = store.CurrencyWhitelist[0]
	}

	balance := 0
	if preferred != "" {
		balance = w.GetBalance(user, preferred)
	}

	var listings []protocol.ListingState
	for _, l := range store.Listings {
		if l.ProductEntity == "" {
			continue
		}

		currencyID := ""
		priceF := 0.0
		if v, ok := l.Cost[preferred]; preferred != "" && ok {
			currencyID = preferred
			priceF = v
		} else {
			for _, cur := range store.CurrencyWhitelist {
				if v, ok := l.Cost[cur]; ok {
					currencyID = cur
					priceF = v
					break
				}
			}
			if currencyID == "" {
				for _, cur := range sortedCostKeys(l.Cost) {
					currencyID = cur
					priceF = l.Cost[cur]
					break
				}
			}
		}

		cat := defaultCategory
		if len(l.Categories) > 0 {
			cat = l.Categories[0]
		}

		listings = append(listings, protocol.ListingState{
			ID:            l.ID,
			ProductEntity: l.ProductEntity,
			Price:         ceilPrice(priceF),
			Category:      cat,
			CurrencyID:    currencyID,
			Mode:          string(l.Mode),
			Owned:         w.GetOwned(user, l.ProductEntity),
			Remaining:     l.RemainingCount,
		})
	}

	var readyToSell []protocol.ListingState
	for _, d := range listings {
		if d.Mode != string(ModeSell) || d.Owned <= 0 || d.Remaining == 0 {
			continue
		}
		dup := d
		dup.Category = readyToSellCategory
		readyToSell = append(readyToSell, dup)
	}
	listings = append(listings, readyToSell...)

	return protocol.StoreUiState{
		StoreID:  store.ID,
		Balance:  balance,
		Listings: listings,
	}
}

// updateUiState revalidates the session and pushes a fresh snapshot; a
// user who lost access gets the UI closed instead.
func (w *World) updateUiState(store *Store, user EntityID) {
	if !w.isAccessAllowed(store, user) {
		w.closeUI(store, "no-access")
		store.ForceRelease()
		return
	}

	a := w.actorByEntity[user]
	if a == nil {
		return
	}
	state := w.projectUiState(store, user)
	ev := protocol.Event{
		"t":        w.tick.Load(),
		"type":     "STORE_UI_STATE",
		"store_id": store.ID,
		"state":    state,
	}
	// Only the newest snapshot per store matters within a tick.
	a.replaceEvent(func(e protocol.Event) bool {
		return e["type"] == "STORE_UI_STATE" && e["store_id"] == store.ID
	}, ev)
}

// refreshOpenStores re-projects every held session. Every mutation that
// can change a displayed balance or listing funnels through here.
func (w *World) refreshOpenStores() {
	for _, store := range w.storesOrdered() {
		if user := store.CurrentUser(); user != 0 {
			w.updateUiState(store, user)
		}
	}
}

func sortedCostKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
