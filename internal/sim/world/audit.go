package world

// AuditEntry is one domain event worth keeping: a completed transaction,
// a session transition, or a preset load. Written as JSONL and indexed.
type AuditEntry struct {
	Tick  uint64 `json:"tick"`
	TxID  string `json:"tx_id,omitempty"`
	Actor string `json:"actor,omitempty"`
	Store string `json:"store,omitempty"`
	Kind  string `json:"kind"` // "BUY","SELL","SESSION_OPEN","SESSION_CLOSE","FORCE_CLOSE","PRESET_LOAD"

	ListingID string `json:"listing_id,omitempty"`
	Product   string `json:"product,omitempty"`
	Currency  string `json:"currency,omitempty"`
	UnitPrice int    `json:"unit_price,omitempty"`
	Count     int    `json:"count,omitempty"`
	Total     int    `json:"total,omitempty"`
	Remaining int    `json:"remaining,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

func (w *World) SetAuditLogger(l AuditLogger) { w.auditLogger = l }

func (w *World) auditTrade(e AuditEntry) {
	if w.auditLogger == nil {
		return
	}
	e.Tick = w.tick.Load()
	if err := w.auditLogger.WriteAudit(e); err != nil {
		w.logf("audit: %v", err)
	}
}

func (w *World) auditSession(store *Store, user EntityID, kind, reason string) {
	if w.auditLogger == nil {
		return
	}
	e := AuditEntry{
		Tick:   w.tick.Load(),
		Actor:  w.actorIDFor(user),
		Store:  store.ID,
		Kind:   kind,
		Reason: reason,
	}
	if err := w.auditLogger.WriteAudit(e); err != nil {
		w.logf("audit: %v", err)
	}
}
