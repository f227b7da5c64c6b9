package world

import "fmt"

const (
	InstantTypeOpenStore       = "OPEN_STORE"
	InstantTypeCloseStore      = "CLOSE_STORE"
	InstantTypeBuyListing      = "BUY_LISTING"
	InstantTypeSellListing     = "SELL_LISTING"
	InstantTypeExchangeListing = "EXCHANGE_LISTING"
	InstantTypeRefreshStore    = "REFRESH_STORE"
	InstantTypeMove            = "MOVE"
)

var supportedInstantTypes = []string{
	InstantTypeOpenStore,
	InstantTypeCloseStore,
	InstantTypeBuyListing,
	InstantTypeSellListing,
	InstantTypeExchangeListing,
	InstantTypeRefreshStore,
	InstantTypeMove,
}

func validateActionDispatchMaps() error {
	return validateDispatchMap("instantDispatch", instantDispatch, supportedInstantTypes)
}

func validateDispatchMap[T any](name string, handlers map[string]T, supported []string) error {
	allowed := make(map[string]struct{}, len(supported))
	for _, k := range supported {
		if k == "" {
			return fmt.Errorf("%s: empty supported key", name)
		}
		if _, ok := allowed[k]; ok {
			return fmt.Errorf("%s: duplicate supported key %q", name, k)
		}
		allowed[k] = struct{}{}
	}
	if len(handlers) != len(allowed) {
		return fmt.Errorf("%s size mismatch: got=%d want=%d", name, len(handlers), len(allowed))
	}
	for k := range handlers {
		if _, ok := allowed[k]; !ok {
			return fmt.Errorf("%s has unsupported key %q", name, k)
		}
	}
	for k := range allowed {
		if _, ok := handlers[k]; !ok {
			return fmt.Errorf("%s missing key %q", name, k)
		}
	}
	return nil
}
