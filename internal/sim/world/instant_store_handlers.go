package world

import "tradepost.gg/internal/protocol"

func (w *World) storeForInstant(a *Actor, inst protocol.InstantReq, nowTick uint64) *Store {
	store := w.storesByID[inst.StoreID]
	if store == nil {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "unknown store"))
		return nil
	}
	return store
}

func handleInstantOpenStore(w *World, a *Actor, inst protocol.InstantReq, nowTick uint64) {
	store := w.storeForInstant(a, inst, nowTick)
	if store == nil {
		return
	}
	ok, code := w.tryOpenSession(store, a.Entity, nowTick)
	if !ok {
		a.AddEvent(actionResult(nowTick, inst.ID, false, code, "open rejected"))
		return
	}
	a.AddEvent(actionResult(nowTick, inst.ID, true, "", ""))
}

func handleInstantCloseStore(w *World, a *Actor, inst protocol.InstantReq, nowTick uint64) {
	store := w.storeForInstant(a, inst, nowTick)
	if store == nil {
		return
	}
	if store.CurrentUser() != a.Entity {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNoSession, "no open session"))
		return
	}
	w.closeSession(store, a.Entity)
	a.AddEvent(protocol.Event{
		"t":        nowTick,
		"type":     "STORE_CLOSED",
		"store_id": store.ID,
		"reason":   "closed",
	})
	a.AddEvent(actionResult(nowTick, inst.ID, true, "", ""))
}

// handleInstantBuyListing routes by the listing's mode: a buy request
// against a Sell-mode listing is the client selling into the store's
// buy order, so it executes the sell path.
func handleInstantBuyListing(w *World, a *Actor, inst protocol.InstantReq, nowTick uint64) {
	store := w.storeForInstant(a, inst, nowTick)
	if store == nil {
		return
	}
	if !w.validateUiAccess(store, a.Entity) {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNoSession, "session invalid"))
		return
	}

	listing := store.FindListing(inst.ListingID)
	if listing == nil {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "unknown listing"))
		return
	}

	count := inst.Count
	if count < 1 {
		count = 1
	}

	var ok bool
	if listing.Mode == ModeSell {
		ok = w.TrySell(listing.ID, store, a.Entity, count)
	} else {
		ok = w.TryBuy(listing.ID, store, a.Entity, count)
	}
	w.finishTrade(a, inst, store, listing.ID, ok, nowTick)
}

func handleInstantSellListing(w *World, a *Actor, inst protocol.InstantReq, nowTick uint64) {
	store := w.storeForInstant(a, inst, nowTick)
	if store == nil {
		return
	}
	if !w.validateUiAccess(store, a.Entity) {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNoSession, "session invalid"))
		return
	}

	count := inst.Count
	if count < 1 {
		count = 1
	}

	ok := w.TrySell(inst.ListingID, store, a.Entity, count)
	w.finishTrade(a, inst, store, inst.ListingID, ok, nowTick)
}

func handleInstantExchangeListing(w *World, a *Actor, inst protocol.InstantReq, nowTick uint64) {
	store := w.storeForInstant(a, inst, nowTick)
	if store == nil {
		return
	}
	if !w.validateUiAccess(store, a.Entity) {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNoSession, "session invalid"))
		return
	}

	req := ExchangeRequest{
		ExchangeType:   inst.ExchangeType,
		FromCurrencyID: inst.FromCurrencyID,
		ToCurrencyID:   inst.ToCurrencyID,
		Amount:         inst.Amount,
		ItemProtoID:    inst.ItemProtoID,
		ToItemProtoID:  inst.ToItemProtoID,
		ExchangeRate:   inst.ExchangeRate,
		ActorRef:       inst.ActorRef,
	}
	if w.TryExchange(inst.ListingID, store, a.Entity, req) {
		w.finishTrade(a, inst, store, inst.ListingID, true, nowTick)
		return
	}
	a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNotSupported, "exchange not supported"))
	w.updateUiState(store, a.Entity)
}

func handleInstantRefreshStore(w *World, a *Actor, inst protocol.InstantReq, nowTick uint64) {
	store := w.storeForInstant(a, inst, nowTick)
	if store == nil {
		return
	}
	if !w.validateUiAccess(store, a.Entity) {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrNoSession, "session invalid"))
		return
	}
	w.updateUiState(store, a.Entity)
	a.AddEvent(actionResult(nowTick, inst.ID, true, "", ""))
}

func handleInstantMove(w *World, a *Actor, inst protocol.InstantReq, nowTick uint64) {
	if inst.Pos == nil {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "missing pos"))
		return
	}
	ent := w.entities[a.Entity]
	if ent == nil {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrInvalidTarget, "no actor entity"))
		return
	}
	target := FromArray(*inst.Pos)
	if Manhattan(ent.Pos, target) > w.cfg.MaxMoveStep {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "step too large"))
		return
	}
	ent.Pos = target
	a.AddEvent(actionResult(nowTick, inst.ID, true, "", ""))
}

// finishTrade emits the transaction outcome and pushes a fresh snapshot.
// The snapshot goes out on failure too so the client never acts on stale
// stock or balance numbers.
func (w *World) finishTrade(a *Actor, inst protocol.InstantReq, store *Store, listingID string, ok bool, nowTick uint64) {
	a.AddEvent(protocol.Event{
		"t":          nowTick,
		"type":       "STORE_TRANSACTION",
		"store_id":   store.ID,
		"listing_id": listingID,
		"ok":         ok,
	})
	if ok {
		a.AddEvent(actionResult(nowTick, inst.ID, true, "", ""))
	} else {
		a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrTradeFailed, "trade rejected"))
	}
	w.updateUiState(store, a.Entity)
}
