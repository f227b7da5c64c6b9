package world

import "tradepost.gg/internal/protocol"

// openUI marks the store UI open for a user and tells the client.
func (w *World) openUI(store *Store, user EntityID, tick uint64) {
	if store.uiOpenFor == user {
		return
	}
	store.uiOpenFor = user
	if a := w.actorByEntity[user]; a != nil {
		a.AddEvent(protocol.Event{
			"t":        tick,
			"type":     "STORE_OPENED",
			"store_id": store.ID,
		})
	}
}

// closeUI force-closes the store UI server-side, if open.
func (w *World) closeUI(store *Store, reason string) {
	user := store.uiOpenFor
	if user == 0 {
		return
	}
	store.uiOpenFor = 0
	if a := w.actorByEntity[user]; a != nil {
		a.AddEvent(protocol.Event{
			"t":        w.tick.Load(),
			"type":     "STORE_CLOSED",
			"store_id": store.ID,
			"reason":   reason,
		})
	}
}

func (w *World) isUIOpen(store *Store, user EntityID) bool {
	return user != 0 && store.uiOpenFor == user
}

func (w *World) notice(user EntityID, code, storeID string, tick uint64) {
	if a := w.actorByEntity[user]; a != nil {
		a.AddEvent(protocol.Event{
			"t":        tick,
			"type":     "NOTICE",
			"code":     code,
			"store_id": storeID,
		})
	}
}

// tryOpenSession runs the open-attempt gate: access, busy-lock, proximity,
// in that order. On success the session is acquired, the UI opened, and
// the first snapshot projected.
func (w *World) tryOpenSession(store *Store, user EntityID, tick uint64) (ok bool, code string) {
	if !w.entityExists(user) {
		return false, protocol.ErrInvalidTarget
	}

	if !w.isAccessAllowed(store, user) {
		w.notice(user, "store-no-access", store.ID, tick)
		return false, protocol.ErrNoAccess
	}

	if cur := store.CurrentUser(); cur != 0 && cur != user {
		w.notice(user, "store-busy", store.ID, tick)
		return false, protocol.ErrBusy
	}

	storeEnt := w.entities[store.Entity]
	userEnt := w.entities[user]
	if storeEnt == nil || userEnt == nil {
		return false, protocol.ErrInvalidTarget
	}
	if !InRange(storeEnt.Pos, userEnt.Pos, w.cfg.AutoCloseDistance) {
		w.notice(user, "store-too-far", store.ID, tick)
		return false, protocol.ErrTooFar
	}

	if !store.TryAcquire(user) {
		return false, protocol.ErrBusy
	}

	if !w.isUIOpen(store, user) {
		w.openUI(store, user, tick)
	}
	w.updateUiState(store, user)
	w.auditSession(store, user, "SESSION_OPEN", "")
	return true, ""
}

// closeSession handles an explicit client close.
func (w *World) closeSession(store *Store, user EntityID) {
	if store.CurrentUser() != user {
		return
	}
	if w.isUIOpen(store, user) {
		store.uiOpenFor = 0
	}
	store.Release(user)
	w.auditSession(store, user, "SESSION_CLOSE", "")
}

// validateUiAccess re-runs the session gate for an in-session request:
// access, session ownership, proximity. Requests from anyone who is not
// the current user fail here without touching state.
func (w *World) validateUiAccess(store *Store, user EntityID) bool {
	if !w.isAccessAllowed(store, user) {
		w.logf("ui: no access: %s -> %s", w.actorIDFor(user), store.ID)
		return false
	}

	if cur := store.CurrentUser(); cur == 0 || cur != user {
		w.logf("ui: store %s busy: current=%d attempt=%d", store.ID, cur, user)
		return false
	}

	if !w.entityExists(user) {
		return false
	}

	storeEnt := w.entities[store.Entity]
	userEnt := w.entities[user]
	if storeEnt == nil || userEnt == nil {
		return false
	}
	if !InRange(storeEnt.Pos, userEnt.Pos, w.cfg.AutoCloseDistance) {
		w.logf("ui: user too far from store: %s -> %s", w.actorIDFor(user), store.ID)
		return false
	}

	return true
}

// sessionSweep is the periodic revalidation: any held session whose user
// vanished, walked out of range, or lost access is force-closed.
func (w *World) sessionSweep(tick uint64) {
	if tick < w.nextSessionCheck {
		return
	}
	w.nextSessionCheck = tick + uint64(w.cfg.SessionCheckTicks)

	for _, store := range w.storesOrdered() {
		user := store.CurrentUser()
		if user == 0 {
			continue
		}

		userEnt := w.entities[user]
		storeEnt := w.entities[store.Entity]
		if userEnt == nil || storeEnt == nil {
			store.ForceRelease()
			store.uiOpenFor = 0
			continue
		}

		if !InRange(storeEnt.Pos, userEnt.Pos, w.cfg.AutoCloseDistance) {
			w.closeUI(store, "too-far")
			store.ForceRelease()
			w.auditSession(store, user, "FORCE_CLOSE", "out of range")
			continue
		}

		if !w.isAccessAllowed(store, user) {
			w.closeUI(store, "no-access")
			store.ForceRelease()
			w.notice(user, "store-no-access", store.ID, tick)
			w.auditSession(store, user, "FORCE_CLOSE", "access revoked")
		}
	}
}

// UpdateStoreAccess swaps the store's access configuration and revalidates
// any held session immediately instead of waiting for the next sweep.
func (w *World) UpdateStoreAccess(store *Store, reader [][]string, policy [][]string) {
	if ent := w.entities[store.Entity]; ent != nil {
		ent.AccessLists = reader
	}
	store.Access = policy

	user := store.CurrentUser()
	if user == 0 {
		return
	}
	if !w.isAccessAllowed(store, user) {
		w.closeUI(store, "no-access")
		store.ForceRelease()
		w.auditSession(store, user, "FORCE_CLOSE", "access policy changed")
	}
}
