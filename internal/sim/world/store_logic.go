package world

import (
	"math"

	"github.com/google/uuid"
)

// mulPrice multiplies a unit price by a count, refusing to wrap.
func mulPrice(unit, count int) (int, bool) {
	if unit <= 0 || count <= 0 {
		return 0, true
	}
	if unit > math.MaxInt/count {
		return 0, false
	}
	return unit * count, true
}

func ceilPrice(f float64) int {
	return int(math.Ceil(f))
}

// tryPickCurrencyForBuy walks the whitelist in order and picks the first
// currency the listing quotes at a positive (rounded-up) price that the
// user can afford at least one unit of. First match wins; no best-price
// search across currencies.
func (w *World) tryPickCurrencyForBuy(store *Store, listing *Listing, user EntityID) (currency string, price int, ok bool) {
	balances := make(map[string]int, len(store.CurrencyWhitelist))
	for _, cur := range store.CurrencyWhitelist {
		balances[cur] = w.GetBalance(user, cur)
	}

	for _, cur := range store.CurrencyWhitelist {
		priceF, has := listing.Cost[cur]
		if !has {
			continue
		}
		p := ceilPrice(priceF)
		if p <= 0 {
			continue
		}
		if balances[cur] < p {
			continue
		}
		return cur, p, true
	}
	return "", 0, false
}

// tryPickCurrencyForSell is the same walk without the affordability check:
// the store always has money to pay out.
func (w *World) tryPickCurrencyForSell(store *Store, listing *Listing) (currency string, price int, ok bool) {
	for _, cur := range store.CurrencyWhitelist {
		priceF, has := listing.Cost[cur]
		if !has {
			continue
		}
		p := ceilPrice(priceF)
		if p <= 0 {
			continue
		}
		return cur, p, true
	}
	return "", 0, false
}

// TryBuy validates and executes one buy against a Buy-mode listing.
// The full price for the clamped count is debited before any product
// spawns; each per-unit spawn failure refunds exactly that unit's price.
// Stock is decremented only by units actually shipped.
func (w *World) TryBuy(listingID string, store *Store, user EntityID, count int) bool {
	if store == nil || len(store.Listings) == 0 || count <= 0 {
		return false
	}
	listing := store.findListingWithMode(listingID, ModeBuy)
	if listing == nil {
		return false
	}
	if !w.cats.HasEntity(listing.ProductEntity) {
		return false
	}

	currency, unitPrice, ok := w.tryPickCurrencyForBuy(store, listing, user)
	if !ok {
		return false
	}

	maxByRemaining := math.MaxInt
	if listing.RemainingCount >= 0 {
		maxByRemaining = listing.RemainingCount
	}

	balance := w.GetBalance(user, currency)
	maxByMoney := math.MaxInt
	if unitPrice > 0 {
		maxByMoney = balance / unitPrice
	}

	maxPossible := min(maxByRemaining, maxByMoney)
	if maxPossible <= 0 {
		return false
	}

	actual := min(count, maxPossible)

	totalPrice, ok := mulPrice(unitPrice, actual)
	if !ok {
		w.logf("TryBuy: price overflow for %s x%d", listing.ProductEntity, actual)
		return false
	}
	if !w.TryTakeCurrency(user, currency, totalPrice) {
		return false
	}

	spawned := 0
	for i := 0; i < actual; i++ {
		if w.trySpawnProduct(listing.ProductEntity, user) {
			spawned++
		} else {
			w.GiveCurrency(user, currency, unitPrice)
		}
	}

	if spawned <= 0 {
		return false
	}

	if listing.RemainingCount > 0 {
		listing.RemainingCount -= spawned
	}

	w.logf("TryBuy: OK %s x%d for %d %s each", listing.ProductEntity, spawned, unitPrice, currency)
	w.auditTrade(AuditEntry{
		TxID:      uuid.NewString(),
		Actor:     w.actorIDFor(user),
		Store:     store.ID,
		Kind:      "BUY",
		ListingID: listing.ID,
		Product:   listing.ProductEntity,
		Currency:  currency,
		UnitPrice: unitPrice,
		Count:     spawned,
		Total:     unitPrice * spawned,
		Remaining: listing.RemainingCount,
	})
	return true
}

// TrySell validates and executes one sell against a Sell-mode listing:
// clamp by owned units and remaining stock, take the product units, then
// credit the price.
func (w *World) TrySell(listingID string, store *Store, user EntityID, count int) bool {
	if store == nil || len(store.Listings) == 0 || count <= 0 {
		return false
	}
	listing := store.findListingWithMode(listingID, ModeSell)
	if listing == nil {
		return false
	}

	currency, unitPrice, ok := w.tryPickCurrencyForSell(store, listing)
	if !ok || unitPrice <= 0 {
		return false
	}

	owned := w.GetOwned(user, listing.ProductEntity)
	maxByRemaining := math.MaxInt
	if listing.RemainingCount >= 0 {
		maxByRemaining = listing.RemainingCount
	}

	maxPossible := min(owned, maxByRemaining)
	if maxPossible <= 0 {
		return false
	}

	actual := min(count, maxPossible)

	total, ok := mulPrice(unitPrice, actual)
	if !ok {
		w.logf("TrySell: price overflow for %s x%d", listing.ProductEntity, actual)
		return false
	}

	if !w.tryTakeProductUnits(user, listing.ProductEntity, actual) {
		return false
	}

	w.GiveCurrency(user, currency, total)

	if listing.RemainingCount > 0 {
		listing.RemainingCount -= actual
	}

	w.logf("TrySell: OK %s x%d for %d %s each", listing.ProductEntity, actual, unitPrice, currency)
	w.auditTrade(AuditEntry{
		TxID:      uuid.NewString(),
		Actor:     w.actorIDFor(user),
		Store:     store.ID,
		Kind:      "SELL",
		ListingID: listing.ID,
		Product:   listing.ProductEntity,
		Currency:  currency,
		UnitPrice: unitPrice,
		Count:     actual,
		Total:     total,
		Remaining: listing.RemainingCount,
	})
	return true
}

// TryExchange is the barter operation: present in the protocol, not
// supported by the engine. Always a terminal failure, never a silent no-op
// success.
func (w *World) TryExchange(listingID string, store *Store, user EntityID, req ExchangeRequest) bool {
	return false
}

// ExchangeRequest mirrors the wire fields of EXCHANGE_LISTING.
type ExchangeRequest struct {
	ExchangeType   string
	FromCurrencyID string
	ToCurrencyID   string
	Amount         int
	ItemProtoID    string
	ToItemProtoID  string
	ExchangeRate   float64
	ActorRef       uint64
}

// GetOwned counts how many units of a product the user holds. Stackable
// products count by summed stack quantity; everything else counts one per
// matching entity.
func (w *World) GetOwned(user EntityID, productProtoID string) int {
	total := 0

	expectedStackType, _ := w.cats.StackTypeOf(productProtoID)

	for _, id := range w.enumerateItems(user) {
		e := w.entities[id]
		if e == nil {
			continue
		}
		if expectedStackType != "" && e.Stack != nil && e.Stack.Type == expectedStackType {
			if e.Stack.Count > 0 {
				total += e.Stack.Count
			}
			continue
		}
		if e.Proto == productProtoID {
			total++
		}
	}
	return total
}

// tryTakeProductUnits removes amount product units from the user: via the
// ledger when the product resolves to a stack type, otherwise by deleting
// matching item entities one at a time.
func (w *World) tryTakeProductUnits(user EntityID, protoID string, amount int) bool {
	if amount <= 0 {
		return true
	}

	stackType, _ := w.cats.StackTypeOf(protoID)

	if stackType == "" {
		// The prototype itself isn't declared stackable; a held instance
		// still might be. Match the first owned instance's stack type.
		for _, id := range w.enumerateItems(user) {
			e := w.entities[id]
			if e == nil || e.Proto != protoID {
				continue
			}
			if e.Stack != nil {
				stackType = e.Stack.Type
				break
			}
		}
	}

	if stackType != "" {
		return w.TryTakeCurrency(user, stackType, amount)
	}

	left := amount
	for _, id := range w.enumerateItems(user) {
		if left <= 0 {
			break
		}
		e := w.entities[id]
		if e == nil || e.Proto != protoID {
			continue
		}
		w.deleteEntity(id)
		left--
	}
	return left <= 0
}

// trySpawnProduct spawns one product at the user's position and tries to
// put it in a free hand; if the pickup fails the item stays on the ground.
func (w *World) trySpawnProduct(protoID string, user EntityID) bool {
	id, ok := w.spawnEntity(protoID, w.positionOf(user))
	if !ok {
		w.logf("trySpawnProduct: spawn failed for %s", protoID)
		return false
	}
	if w.hasHands(user) {
		w.tryPickupAnyHand(user, id)
	}
	return true
}
