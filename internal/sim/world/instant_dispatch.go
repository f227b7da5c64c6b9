package world

import "tradepost.gg/internal/protocol"

type instantHandler func(*World, *Actor, protocol.InstantReq, uint64)

var instantDispatch = map[string]instantHandler{
	InstantTypeOpenStore:       handleInstantOpenStore,
	InstantTypeCloseStore:      handleInstantCloseStore,
	InstantTypeBuyListing:      handleInstantBuyListing,
	InstantTypeSellListing:     handleInstantSellListing,
	InstantTypeExchangeListing: handleInstantExchangeListing,
	InstantTypeRefreshStore:    handleInstantRefreshStore,
	InstantTypeMove:            handleInstantMove,
}
