package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Rule/action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNoAccess      = "E_NO_ACCESS"
	ErrBusy          = "E_BUSY"
	ErrTooFar        = "E_TOO_FAR"
	ErrNoSession     = "E_NO_SESSION"
	ErrTradeFailed   = "E_TRADE_FAILED"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrNotSupported  = "E_NOT_SUPPORTED"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrNoAccess:        {},
	ErrBusy:            {},
	ErrTooFar:          {},
	ErrNoSession:       {},
	ErrTradeFailed:     {},
	ErrInvalidTarget:   {},
	ErrNotSupported:    {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
