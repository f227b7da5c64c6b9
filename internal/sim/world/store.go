package world

type StoreMode string

const (
	ModeBuy  StoreMode = "BUY"
	ModeSell StoreMode = "SELL"
)

// Listing is one tradeable offer. Mode never changes after creation.
// RemainingCount: negative is unlimited, zero is exhausted (listing kept
// but non-transactable); it only ever decreases, by successful fulfillment.
type Listing struct {
	ID             string
	ProductEntity  string
	Cost           map[string]float64
	Mode           StoreMode
	RemainingCount int
	Categories     []string
}

// Store is the trading state attached to one world entity.
type Store struct {
	ID     string
	Entity EntityID
	Preset string

	// Ordered: first entry is the preferred display/settlement currency.
	CurrencyWhitelist []string
	Categories        []string
	Listings          []*Listing

	// Fallback access policy (OR of AND-sets of access tokens), used only
	// when the store entity carries no native access reader.
	Access [][]string

	// Session lock. At most one user at a time; mutate only through
	// TryAcquire/Release/ForceRelease so the invariant stays auditable.
	currentUser EntityID
	uiOpenFor   EntityID
}

func (s *Store) CurrentUser() EntityID { return s.currentUser }

// TryAcquire claims the session for user. Re-acquiring by the same user
// succeeds; anyone else is refused while the session is held.
func (s *Store) TryAcquire(user EntityID) bool {
	if user == 0 {
		return false
	}
	if s.currentUser != 0 && s.currentUser != user {
		return false
	}
	s.currentUser = user
	return true
}

// Release clears the session only if user holds it.
func (s *Store) Release(user EntityID) bool {
	if user == 0 || s.currentUser != user {
		return false
	}
	s.currentUser = 0
	return true
}

// ForceRelease clears the session unconditionally and reports who held it.
func (s *Store) ForceRelease() EntityID {
	u := s.currentUser
	s.currentUser = 0
	return u
}

func (s *Store) FindListing(id string) *Listing {
	for _, l := range s.Listings {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func (s *Store) findListingWithMode(id string, mode StoreMode) *Listing {
	for _, l := range s.Listings {
		if l.ID == id && l.Mode == mode {
			return l
		}
	}
	return nil
}
