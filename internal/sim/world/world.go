package world

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync/atomic"

	"tradepost.gg/internal/protocol"
	"tradepost.gg/internal/sim/catalogs"
)

type Config struct {
	ID         string
	TickRateHz int
	Seed       int64

	// Session gating.
	AutoCloseDistance float64
	SessionCheckTicks int

	// Actor mobility and provisioning.
	MaxMoveStep   int
	SpawnPos      Vec3i
	StarterStacks map[string]int

	Stores []StoreSpec
}

// StoreSpec places one store entity at world start.
type StoreSpec struct {
	Proto  string
	Pos    Vec3i
	Preset string

	// Fallback access policy (OR of AND-sets of tokens).
	Access [][]string
	// Native access reader lists; non-nil puts a reader on the entity.
	Reader [][]string
}

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type ActionEnvelope struct {
	ActorID string
	Act     protocol.ActMsg
}

// Actor is one connected (or test-driven) player.
type Actor struct {
	ID     string
	Name   string
	Entity EntityID

	events []protocol.Event
}

const maxPendingEvents = 256

func (a *Actor) AddEvent(e protocol.Event) {
	if len(a.events) >= maxPendingEvents {
		a.events = a.events[1:]
	}
	a.events = append(a.events, e)
}

// replaceEvent swaps out the newest pending event matching the predicate,
// or appends when none matches. Used to collapse repeated UI snapshots
// within one tick.
func (a *Actor) replaceEvent(match func(protocol.Event) bool, e protocol.Event) {
	for i := len(a.events) - 1; i >= 0; i-- {
		if match(a.events[i]) {
			a.events[i] = e
			return
		}
	}
	a.AddEvent(e)
}

// TakeEvents drains the actor's pending events.
func (a *Actor) TakeEvents() []protocol.Event {
	out := a.events
	a.events = nil
	return out
}

type clientState struct {
	Out chan []byte
}

// World is a single-threaded authoritative simulation. All state must be
// accessed only from the world loop goroutine (or via StepOnce in tests).
type World struct {
	cfg  Config
	cats *catalogs.Catalogs

	tick atomic.Uint64
	rand *rand.Rand

	nextEntityNum atomic.Uint64
	nextActorNum  atomic.Uint64

	entities map[EntityID]*Entity

	stores     map[EntityID]*Store
	storesByID map[string]*Store

	actors        map[string]*Actor
	actorByEntity map[EntityID]*Actor
	clients       map[string]*clientState

	inbox chan ActionEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	nextSessionCheck uint64

	auditLogger AuditLogger
	logger      *log.Logger

	// Test seam: when set, spawns of matching prototypes fail.
	spawnFail func(protoID string) bool
}

func New(cfg Config, cats *catalogs.Catalogs) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("nil catalogs")
	}
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 5
	}
	if cfg.AutoCloseDistance <= 0 {
		cfg.AutoCloseDistance = 3
	}
	if cfg.SessionCheckTicks <= 0 {
		cfg.SessionCheckTicks = 1
	}
	if cfg.MaxMoveStep <= 0 {
		cfg.MaxMoveStep = 1
	}

	w := &World{
		cfg:  cfg,
		cats: cats,
		rand: rand.New(rand.NewSource(cfg.Seed)),

		entities:   map[EntityID]*Entity{},
		stores:     map[EntityID]*Store{},
		storesByID: map[string]*Store{},

		actors:        map[string]*Actor{},
		actorByEntity: map[EntityID]*Actor{},
		clients:       map[string]*clientState{},

		inbox: make(chan ActionEnvelope, 256),
		join:  make(chan JoinRequest, 16),
		leave: make(chan string, 16),
		stop:  make(chan struct{}),
	}

	if err := validateActionDispatchMaps(); err != nil {
		return nil, err
	}

	for i, spec := range cfg.Stores {
		if _, err := w.AddStore(spec); err != nil {
			return nil, fmt.Errorf("store %d: %w", i, err)
		}
	}
	return w, nil
}

// AddStore spawns a store entity and loads its preset listings.
func (w *World) AddStore(spec StoreSpec) (*Store, error) {
	ent, ok := w.spawnEntity(spec.Proto, spec.Pos)
	if !ok {
		return nil, fmt.Errorf("unknown store prototype %q", spec.Proto)
	}
	if spec.Reader != nil {
		w.entities[ent].AccessLists = spec.Reader
	}

	id := fmt.Sprintf("S%06d", len(w.storesByID)+1)
	store := &Store{
		ID:     id,
		Entity: ent,
		Preset: spec.Preset,
		Access: spec.Access,
	}
	w.stores[ent] = store
	w.storesByID[id] = store

	w.loadStorePreset(store, "init")
	return store, nil
}

func (w *World) StoreByID(id string) *Store { return w.storesByID[id] }

func (w *World) storesOrdered() []*Store {
	out := make([]*Store, 0, len(w.storesByID))
	for _, s := range w.storesByID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) handleJoin(req JoinRequest) {
	n := w.nextActorNum.Add(1)
	actorID := fmt.Sprintf("A%06d", n)

	id := EntityID(w.nextEntityNum.Add(1))
	ent := &Entity{
		ID:    id,
		Proto: "ACTOR",
		Pos:   w.cfg.SpawnPos,
		Hands: []Hand{{Name: "left"}, {Name: "right"}},
		Equipment: []EquipSlot{
			{Name: "belt"},
			{Name: "back"},
		},
	}
	w.entities[id] = ent

	a := &Actor{ID: actorID, Name: req.Name, Entity: id}
	w.actors[actorID] = a
	w.actorByEntity[id] = a
	if req.Out != nil {
		w.clients[actorID] = &clientState{Out: req.Out}
	}

	for _, stackType := range sortedKeys(w.cfg.StarterStacks) {
		w.GiveCurrency(id, stackType, w.cfg.StarterStacks[stackType])
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		ActorID:         actorID,
		TickRateHz:      w.cfg.TickRateHz,
		WorldID:         w.cfg.ID,
	}
	for _, s := range w.storesOrdered() {
		ent := w.entities[s.Entity]
		if ent == nil {
			continue
		}
		welcome.Stores = append(welcome.Stores, protocol.StoreRef{
			StoreID: s.ID,
			Proto:   ent.Proto,
			Pos:     ent.Pos.ToArray(),
		})
	}

	if req.Resp != nil {
		req.Resp <- JoinResponse{Welcome: welcome}
	}
}

func (w *World) handleLeave(actorID string) {
	delete(w.clients, actorID)
	a := w.actors[actorID]
	if a == nil {
		return
	}
	// Leaving drops any held session; the actor entity stays for reconnects.
	for _, s := range w.storesOrdered() {
		if s.CurrentUser() == a.Entity {
			w.closeUI(s, "disconnected")
			s.ForceRelease()
		}
	}
}

func (w *World) actorIDFor(ent EntityID) string {
	if a := w.actorByEntity[ent]; a != nil {
		return a.ID
	}
	return fmt.Sprintf("E%d", ent)
}

func (w *World) SetLogger(l *log.Logger) { w.logger = l }

func (w *World) logf(format string, args ...any) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func actionResult(tick uint64, ref string, ok bool, code string, message string) protocol.Event {
	ev := protocol.Event{
		"t":    tick,
		"type": "ACTION_RESULT",
		"ref":  ref,
		"ok":   ok,
	}
	if code != "" {
		ev["code"] = code
	}
	if message != "" {
		ev["message"] = message
	}
	return ev
}
