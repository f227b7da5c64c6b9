package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ActorName       string     `json:"actor_name"`
	MaxQueue        int        `json:"max_queue,omitempty"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ActorID         string     `json:"actor_id"`
	TickRateHz      int        `json:"tick_rate_hz"`
	WorldID         string     `json:"world_id"`
	Stores          []StoreRef `json:"stores,omitempty"`
}

// StoreRef advertises a reachable store entity so clients can target
// OPEN_STORE without a separate discovery round-trip.
type StoreRef struct {
	StoreID string `json:"store_id"`
	Proto   string `json:"proto"`
	Pos     [3]int `json:"pos"`
}

// ACT (client -> server): a batch of instant requests applied on the next tick.
type ActMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Instants        []InstantReq `json:"instants,omitempty"`
}

// InstantReq is one client request. Which fields matter depends on the type;
// unknown extras are ignored.
type InstantReq struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	StoreID string `json:"store_id,omitempty"`

	// BUY_LISTING / SELL_LISTING
	ListingID string `json:"listing_id,omitempty"`
	Count     int    `json:"count,omitempty"`

	// EXCHANGE_LISTING (accepted on the wire, always rejected by the engine)
	ExchangeType   string  `json:"exchange_type,omitempty"`
	FromCurrencyID string  `json:"from_currency_id,omitempty"`
	ToCurrencyID   string  `json:"to_currency_id,omitempty"`
	Amount         int     `json:"amount,omitempty"`
	ItemProtoID    string  `json:"item_proto_id,omitempty"`
	ToItemProtoID  string  `json:"to_item_proto_id,omitempty"`
	ExchangeRate   float64 `json:"exchange_rate,omitempty"`
	ActorRef       uint64  `json:"actor_ref,omitempty"`

	// MOVE
	Pos *[3]int `json:"pos,omitempty"`
}

// Exchange type enum values carried by EXCHANGE_LISTING.
const (
	ExchangeCurrencyToCurrency = "CURRENCY_TO_CURRENCY"
	ExchangeItemToCurrency     = "ITEM_TO_CURRENCY"
	ExchangeCurrencyToItem     = "CURRENCY_TO_ITEM"
	ExchangeItemToItem         = "ITEM_TO_ITEM"
)

// EVENTS (server -> client): everything that happened to this actor in one tick.
type EventsMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	ActorID         string  `json:"actor_id"`
	Events          []Event `json:"events"`
}

// Event is a loosely typed server-side event ("type" discriminates).
type Event map[string]interface{}

// StoreUiState is the client-visible snapshot of one store session,
// delivered inside a STORE_UI_STATE event.
type StoreUiState struct {
	StoreID  string         `json:"store_id"`
	Balance  int            `json:"balance"`
	Listings []ListingState `json:"listings"`
}

type ListingState struct {
	ID            string `json:"id"`
	ProductEntity string `json:"product_entity"`
	Price         int    `json:"price"`
	Category      string `json:"category"`
	CurrencyID    string `json:"currency_id"`
	Mode          string `json:"mode"`
	Owned         int    `json:"owned"`
	Remaining     int    `json:"remaining"`
}
