package world

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"tradepost.gg/internal/protocol"
)

// Run drives the world loop until the context is canceled or Stop is
// called. Joins, leaves and actions accumulate between ticks and are
// applied at the tick boundary in arrival order.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []ActionEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// Channel accessors for the transport layer.
func (w *World) JoinCh() chan<- JoinRequest { return w.join }
func (w *World) LeaveCh() chan<- string { return w.leave }
func (w *World) InboxCh() chan<- ActionEnvelope { return w.inbox }

func (w *World) ID() string { return w.cfg.ID }
func (w *World) TickRateHz() int { return w.cfg.TickRateHz }
func (w *World) Tick() uint64 { return w.tick.Load() }

// StepOnce advances the world a single tick with the same ordering as the
// server loop. Intended for deterministic tests.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, actions []ActionEnvelope) uint64 {
	tick := w.tick.Load()
	w.step(joins, leaves, actions)
	return tick
}

func (w *World) step(joins []JoinRequest, leaves []string, actions []ActionEnvelope) {
	nowTick := w.tick.Load()

	for _, id := range leaves {
		w.handleLeave(id)
	}
	for _, req := range joins {
		w.handleJoin(req)
	}

	// Actions apply in server receive order.
	for _, env := range actions {
		a := w.actors[env.ActorID]
		if a == nil {
			continue
		}
		for _, inst := range env.Act.Instants {
			w.applyInstant(a, inst, nowTick)
		}
	}

	w.sessionSweep(nowTick)
	w.flushEvents(nowTick)
	w.tick.Add(1)
}

func (w *World) applyInstant(a *Actor, inst protocol.InstantReq, nowTick uint64) {
	if h := instantDispatch[inst.Type]; h != nil {
		h(w, a, inst, nowTick)
		return
	}
	a.AddEvent(actionResult(nowTick, inst.ID, false, protocol.ErrBadRequest, "unknown instant type"))
}

func (w *World) flushEvents(nowTick uint64) {
	ids := make([]string, 0, len(w.actors))
	for id := range w.actors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		a := w.actors[id]
		events := a.TakeEvents()
		cl := w.clients[id]
		if cl == nil || len(events) == 0 {
			continue
		}
		msg := protocol.EventsMsg{
			Type:            protocol.TypeEvents,
			ProtocolVersion: protocol.Version,
			Tick:            nowTick,
			ActorID:         id,
			Events:          events,
		}
		b, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		sendLatest(cl.Out, b)
	}
}

// sendLatest never blocks the world loop: when the client queue is full
// the oldest message is dropped to make room.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
