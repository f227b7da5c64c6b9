package world

import (
	"testing"

	"tradepost.gg/internal/protocol"
	"tradepost.gg/internal/sim/catalogs"
)

func testCatalogs() *catalogs.Catalogs {
	return &catalogs.Catalogs{
		Entities: catalogs.EntityCatalog{Defs: map[string]catalogs.EntityDef{
			"TERMINAL": {ID: "TERMINAL", Name: "trade terminal"},
			"COIN":     {ID: "COIN", StackType: "credits"},
			"GEM":      {ID: "GEM", StackType: "gems"},
			"MEDKIT":   {ID: "MEDKIT"},
			"POUCH":    {ID: "POUCH"},
			"CARD_ENG": {ID: "CARD_ENG", Grants: []string{"engineering"}},
			"CARD_SEC": {ID: "CARD_SEC", Grants: []string{"security"}},
		}},
		Stacks: catalogs.StackCatalog{Defs: map[string]catalogs.StackDef{
			"credits": {ID: "credits", Spawn: "COIN", MaxCount: 100},
			"gems":    {ID: "gems", Spawn: "GEM"},
		}},
		Access: catalogs.AccessCatalog{
			Levels: map[string]catalogs.AccessLevelDef{
				"engineering": {ID: "engineering"},
				"security":    {ID: "security"},
				"command":     {ID: "command"},
				"cargo":       {ID: "cargo"},
			},
			Groups: map[string]catalogs.AccessGroupDef{
				"crew":  {ID: "crew", Tags: []string{"engineering", "cargo"}},
				"ghost": {ID: "ghost", Tags: nil},
			},
		},
		Presets: catalogs.PresetCatalog{ByID: map[string]catalogs.PresetDef{}},
	}
}

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := New(Config{ID: "test", TickRateHz: 5, Seed: 1}, testCatalogs())
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w
}

func joinActor(t *testing.T, w *World, name string) *Actor {
	t.Helper()
	w.handleJoin(JoinRequest{Name: name})
	var latest *Actor
	for _, a := range w.actors {
		if latest == nil || a.ID > latest.ID {
			latest = a
		}
	}
	if latest == nil {
		t.Fatalf("join produced no actor")
	}
	return latest
}

func addTestStore(t *testing.T, w *World, spec StoreSpec) *Store {
	t.Helper()
	if spec.Proto == "" {
		spec.Proto = "TERMINAL"
	}
	s, err := w.AddStore(spec)
	if err != nil {
		t.Fatalf("add store: %v", err)
	}
	return s
}

func mustSpawn(t *testing.T, w *World, proto string, pos Vec3i) EntityID {
	t.Helper()
	id, ok := w.spawnEntity(proto, pos)
	if !ok {
		t.Fatalf("spawn %s failed", proto)
	}
	return id
}

func eventsOfType(a *Actor, typ string) []protocol.Event {
	var out []protocol.Event
	for _, e := range a.events {
		if e["type"] == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestNew_DefaultsAndStoreIDs(t *testing.T) {
	cats := testCatalogs()
	w, err := New(Config{ID: "test", Stores: []StoreSpec{
		{Proto: "TERMINAL", Pos: Vec3i{X: 1}},
		{Proto: "TERMINAL", Pos: Vec3i{X: 2}},
	}}, cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if w.cfg.TickRateHz != 5 || w.cfg.AutoCloseDistance != 3 || w.cfg.MaxMoveStep != 1 {
		t.Fatalf("defaults not applied: %+v", w.cfg)
	}
	if w.StoreByID("S000001") == nil || w.StoreByID("S000002") == nil {
		t.Fatalf("expected sequential store ids, got %v", w.storesByID)
	}
}

func TestNew_UnknownStoreProtoFails(t *testing.T) {
	_, err := New(Config{ID: "test", Stores: []StoreSpec{{Proto: "NOPE"}}}, testCatalogs())
	if err == nil {
		t.Fatalf("expected error for unknown store proto")
	}
}

func TestHandleJoin_StarterStacksAndWelcome(t *testing.T) {
	cats := testCatalogs()
	w, err := New(Config{
		ID:            "test",
		StarterStacks: map[string]int{"credits": 150},
		Stores:        []StoreSpec{{Proto: "TERMINAL", Pos: Vec3i{X: 1}}},
	}, cats)
	if err != nil {
		t.Fatalf("world: %v", err)
	}

	resp := make(chan JoinResponse, 1)
	w.handleJoin(JoinRequest{Name: "trader", Resp: resp})
	welcome := (<-resp).Welcome

	if welcome.ActorID == "" || welcome.WorldID != "test" {
		t.Fatalf("bad welcome: %+v", welcome)
	}
	if len(welcome.Stores) != 1 || welcome.Stores[0].StoreID != "S000001" {
		t.Fatalf("expected store manifest, got %+v", welcome.Stores)
	}

	a := w.actors[welcome.ActorID]
	if a == nil {
		t.Fatalf("actor not registered")
	}
	if got := w.GetBalance(a.Entity, "credits"); got != 150 {
		t.Fatalf("starter balance = %d, want 150", got)
	}
}

func TestHandleLeave_ForceClosesHeldSessions(t *testing.T) {
	w := newTestWorld(t)
	store := addTestStore(t, w, StoreSpec{Pos: Vec3i{X: 1}})
	a := joinActor(t, w, "trader")

	if ok, code := w.tryOpenSession(store, a.Entity, 0); !ok {
		t.Fatalf("open failed: %s", code)
	}
	w.handleLeave(a.ID)

	if store.CurrentUser() != 0 {
		t.Fatalf("session not released on leave")
	}
	if len(eventsOfType(a, "STORE_CLOSED")) == 0 {
		t.Fatalf("expected STORE_CLOSED event")
	}
}
